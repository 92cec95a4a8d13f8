package repository

import (
	"context"
	"tracker-service/internal/domain/entity"
)

// BanRepository defines the interface for ban persistence
type BanRepository interface {
	// Exists checks whether (tracker, user) is banned
	Exists(ctx context.Context, trackerID, userID string) (bool, error)

	// BanParticipant records the ban and removes the participant with their check-ins.
	// Re-running it for an already banned user is a no-op for the ban row.
	BanParticipant(ctx context.Context, ban *entity.Ban) error

	// Delete lifts a ban; deleted is false if there was none
	Delete(ctx context.Context, trackerID, userID string) (deleted bool, err error)
}
