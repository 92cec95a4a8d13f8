package repository

import (
	"context"
	"time"
	"tracker-service/internal/domain/entity"
)

// CheckinRepository defines the interface for check-in persistence
type CheckinRepository interface {
	// Upsert inserts a check-in or overwrites the type (and tracker week) of the existing
	// row for (tracker, user, date). created reports which of the two happened.
	Upsert(ctx context.Context, checkin *entity.Checkin) (created bool, err error)

	// ListByTracker retrieves check-ins of every participant dated within [from, to]
	ListByTracker(ctx context.Context, trackerID string, from, to time.Time) ([]*entity.Checkin, error)

	// ListByParticipant retrieves one participant's check-ins dated within [from, to]
	ListByParticipant(ctx context.Context, trackerID, userID string, from, to time.Time) ([]*entity.Checkin, error)

	// CountByType counts one participant's check-ins of a type dated within [from, to]
	CountByType(ctx context.Context, trackerID, userID string, checkinType entity.CheckinType, from, to time.Time) (int, error)
}
