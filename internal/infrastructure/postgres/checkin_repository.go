package postgres

import (
	"context"
	"fmt"
	"time"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"
	"tracker-service/pkg/calendar"

	"github.com/jackc/pgx/v5/pgxpool"
)

type checkinRepository struct {
	pool *pgxpool.Pool
}

// NewCheckinRepository creates a new PostgreSQL check-in repository
func NewCheckinRepository(pool *pgxpool.Pool) repository.CheckinRepository {
	return &checkinRepository{pool: pool}
}

// Upsert relies on the (tracker_id, user_id, date) key; xmax = 0 only for freshly inserted rows
func (r *checkinRepository) Upsert(ctx context.Context, checkin *entity.Checkin) (bool, error) {
	query := `
		INSERT INTO checkins (tracker_id, user_id, date, type, tracker_week, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, NOW(), NOW())
		ON CONFLICT (tracker_id, user_id, date) DO UPDATE SET
			type = EXCLUDED.type,
			tracker_week = COALESCE(EXCLUDED.tracker_week, checkins.tracker_week),
			updated_at = NOW()
		RETURNING created_at, updated_at, (xmax = 0) AS inserted
	`

	checkin.Date = calendar.StartOfDay(checkin.Date)

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		checkin.TrackerID, checkin.UserID, checkin.Date, checkin.Type, checkin.TrackerWeek,
	).Scan(&checkin.CreatedAt, &checkin.UpdatedAt, &inserted)

	if err != nil {
		return false, fmt.Errorf("failed to upsert check-in: %w", err)
	}

	return inserted, nil
}

func (r *checkinRepository) ListByTracker(ctx context.Context, trackerID string, from, to time.Time) ([]*entity.Checkin, error) {
	query := `
		SELECT tracker_id, user_id, date, type, tracker_week, created_at, updated_at
		FROM checkins
		WHERE tracker_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date, user_id
	`
	return r.list(ctx, query, trackerID, calendar.StartOfDay(from), calendar.StartOfDay(to))
}

func (r *checkinRepository) ListByParticipant(ctx context.Context, trackerID, userID string, from, to time.Time) ([]*entity.Checkin, error) {
	query := `
		SELECT tracker_id, user_id, date, type, tracker_week, created_at, updated_at
		FROM checkins
		WHERE tracker_id = $1 AND user_id = $2 AND date BETWEEN $3::date AND $4::date
		ORDER BY date
	`
	return r.list(ctx, query, trackerID, userID, calendar.StartOfDay(from), calendar.StartOfDay(to))
}

func (r *checkinRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Checkin, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	var checkins []*entity.Checkin
	for rows.Next() {
		checkin := &entity.Checkin{}
		if err := rows.Scan(
			&checkin.TrackerID, &checkin.UserID, &checkin.Date, &checkin.Type,
			&checkin.TrackerWeek, &checkin.CreatedAt, &checkin.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkins = append(checkins, checkin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}

	return checkins, nil
}

func (r *checkinRepository) CountByType(ctx context.Context, trackerID, userID string, checkinType entity.CheckinType, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM checkins
		WHERE tracker_id = $1 AND user_id = $2 AND type = $3 AND date BETWEEN $4::date AND $5::date
	`

	var count int
	err := r.pool.QueryRow(ctx, query,
		trackerID, userID, checkinType, calendar.StartOfDay(from), calendar.StartOfDay(to),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count check-ins: %w", err)
	}

	return count, nil
}
