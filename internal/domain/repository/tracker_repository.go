package repository

import (
	"context"
	"tracker-service/internal/domain/entity"
)

// TrackerRepository defines the interface for tracker persistence
type TrackerRepository interface {
	// Create stores a new tracker; returns ErrTrackerExists if the channel already has one
	Create(ctx context.Context, tracker *entity.Tracker) error

	// GetByChannelID retrieves the tracker of a channel regardless of its active flag
	GetByChannelID(ctx context.Context, channelID string) (*entity.Tracker, error)

	// GetActiveByChannelID retrieves the active tracker of a channel
	GetActiveByChannelID(ctx context.Context, channelID string) (*entity.Tracker, error)

	// ListActive retrieves every active tracker
	ListActive(ctx context.Context) ([]*entity.Tracker, error)

	// ListActiveByFrequency retrieves active trackers with the given cadence
	ListActiveByFrequency(ctx context.Context, frequency entity.Frequency) ([]*entity.Tracker, error)

	// SetLiveMessageID records the pinned live grid message of a tracker
	SetLiveMessageID(ctx context.Context, channelID, messageID string) error

	// SetInfoMessageID records the pinned info message of a tracker
	SetInfoMessageID(ctx context.Context, channelID, messageID string) error

	// Teardown deletes a tracker with its participants, check-ins and bans.
	// It is atomic and safe to retry; a missing tracker is not an error.
	Teardown(ctx context.Context, channelID string) error
}
