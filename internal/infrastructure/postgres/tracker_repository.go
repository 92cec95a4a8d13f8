package postgres

import (
	"context"
	"errors"
	"fmt"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type trackerRepository struct {
	pool *pgxpool.Pool
}

// NewTrackerRepository creates a new PostgreSQL tracker repository
func NewTrackerRepository(pool *pgxpool.Pool) repository.TrackerRepository {
	return &trackerRepository{pool: pool}
}

const trackerColumns = `
	channel_id, display_name, start_date, end_date,
	frequency, grace_period_days, max_breaks_per_week, max_misses,
	live_message_id, info_message_id,
	is_active, created_by, created_at, updated_at
`

func (r *trackerRepository) Create(ctx context.Context, tracker *entity.Tracker) error {
	query := `
		INSERT INTO trackers (` + trackerColumns + `) VALUES (
			$1, $2, $3::date, $4::date,
			$5, $6, $7, $8,
			$9, $10,
			$11, $12, $13, $14
		)
	`

	_, err := r.pool.Exec(ctx, query,
		tracker.ChannelID, tracker.DisplayName, tracker.StartDate, tracker.EndDate,
		tracker.Frequency, tracker.GracePeriodDays, tracker.MaxBreaksPerWeek, tracker.MaxMisses,
		tracker.LiveMessageID, tracker.InfoMessageID,
		tracker.IsActive, tracker.CreatedBy, tracker.CreatedAt, tracker.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "") {
			return repository.ErrTrackerExists
		}
		return fmt.Errorf("failed to create tracker: %w", err)
	}

	return nil
}

func (r *trackerRepository) GetByChannelID(ctx context.Context, channelID string) (*entity.Tracker, error) {
	query := `SELECT ` + trackerColumns + ` FROM trackers WHERE channel_id = $1`
	return r.getOne(ctx, query, channelID)
}

func (r *trackerRepository) GetActiveByChannelID(ctx context.Context, channelID string) (*entity.Tracker, error) {
	query := `SELECT ` + trackerColumns + ` FROM trackers WHERE channel_id = $1 AND is_active = TRUE`
	return r.getOne(ctx, query, channelID)
}

func (r *trackerRepository) getOne(ctx context.Context, query string, args ...any) (*entity.Tracker, error) {
	tracker, err := scanTracker(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tracker: %w", err)
	}
	return tracker, nil
}

func (r *trackerRepository) ListActive(ctx context.Context) ([]*entity.Tracker, error) {
	query := `SELECT ` + trackerColumns + ` FROM trackers WHERE is_active = TRUE ORDER BY created_at, channel_id`
	return r.list(ctx, query)
}

func (r *trackerRepository) ListActiveByFrequency(ctx context.Context, frequency entity.Frequency) ([]*entity.Tracker, error) {
	query := `
		SELECT ` + trackerColumns + `
		FROM trackers
		WHERE is_active = TRUE AND frequency = $1
		ORDER BY created_at, channel_id
	`
	return r.list(ctx, query, frequency)
}

func (r *trackerRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Tracker, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trackers: %w", err)
	}
	defer rows.Close()

	var trackers []*entity.Tracker
	for rows.Next() {
		tracker, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracker: %w", err)
		}
		trackers = append(trackers, tracker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trackers: %w", err)
	}

	return trackers, nil
}

func (r *trackerRepository) SetLiveMessageID(ctx context.Context, channelID, messageID string) error {
	query := `UPDATE trackers SET live_message_id = $2, updated_at = NOW() WHERE channel_id = $1`
	return r.update(ctx, query, channelID, messageID)
}

func (r *trackerRepository) SetInfoMessageID(ctx context.Context, channelID, messageID string) error {
	query := `UPDATE trackers SET info_message_id = $2, updated_at = NOW() WHERE channel_id = $1`
	return r.update(ctx, query, channelID, messageID)
}

func (r *trackerRepository) update(ctx context.Context, query, channelID, messageID string) error {
	result, err := r.pool.Exec(ctx, query, channelID, messageID)
	if err != nil {
		return fmt.Errorf("failed to update tracker: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Teardown deletes every row of the tracker in one transaction; re-running it is harmless
func (r *trackerRepository) Teardown(ctx context.Context, channelID string) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		statements := []string{
			`DELETE FROM checkins WHERE tracker_id = $1`,
			`DELETE FROM participants WHERE tracker_id = $1`,
			`DELETE FROM bans WHERE tracker_id = $1`,
			`DELETE FROM snapshot_posts WHERE tracker_id = $1`,
			`DELETE FROM trackers WHERE channel_id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, channelID); err != nil {
				return fmt.Errorf("failed to tear down tracker: %w", err)
			}
		}
		return nil
	})
}

func scanTracker(row pgx.Row) (*entity.Tracker, error) {
	tracker := &entity.Tracker{}
	err := row.Scan(
		&tracker.ChannelID, &tracker.DisplayName, &tracker.StartDate, &tracker.EndDate,
		&tracker.Frequency, &tracker.GracePeriodDays, &tracker.MaxBreaksPerWeek, &tracker.MaxMisses,
		&tracker.LiveMessageID, &tracker.InfoMessageID,
		&tracker.IsActive, &tracker.CreatedBy, &tracker.CreatedAt, &tracker.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tracker, nil
}
