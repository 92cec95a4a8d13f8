package repository

import (
	"context"
	"tracker-service/internal/domain/entity"
)

// ParticipantRepository defines the interface for participant persistence
type ParticipantRepository interface {
	// Create enrolls a participant; returns ErrDuplicateParticipant or ErrDuplicateEmoji on conflict
	Create(ctx context.Context, participant *entity.Participant) error

	// Get retrieves a participant by (tracker, user)
	Get(ctx context.Context, trackerID, userID string) (*entity.Participant, error)

	// GetByEmoji retrieves the holder of an emoji in a tracker
	GetByEmoji(ctx context.Context, trackerID, emoji string) (*entity.Participant, error)

	// ListByTracker retrieves participants ordered by join time
	ListByTracker(ctx context.Context, trackerID string) ([]*entity.Participant, error)

	// CountByTracker returns the number of participants in a tracker
	CountByTracker(ctx context.Context, trackerID string) (int, error)

	// Remove deletes a participant and all of their check-ins in one step
	Remove(ctx context.Context, trackerID, userID string) error
}
