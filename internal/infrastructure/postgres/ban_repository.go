package postgres

import (
	"context"
	"fmt"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type banRepository struct {
	pool *pgxpool.Pool
}

// NewBanRepository creates a new PostgreSQL ban repository
func NewBanRepository(pool *pgxpool.Pool) repository.BanRepository {
	return &banRepository{pool: pool}
}

func (r *banRepository) Exists(ctx context.Context, trackerID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bans WHERE tracker_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, trackerID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ban: %w", err)
	}

	return exists, nil
}

// BanParticipant records the ban and removes the participant with their history atomically
func (r *banRepository) BanParticipant(ctx context.Context, ban *entity.Ban) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bans (tracker_id, user_id, reason, banned_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tracker_id, user_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, query, ban.TrackerID, ban.UserID, ban.Reason, ban.BannedAt); err != nil {
			return fmt.Errorf("failed to create ban: %w", err)
		}
		return removeParticipant(ctx, tx, ban.TrackerID, ban.UserID)
	})
}

func (r *banRepository) Delete(ctx context.Context, trackerID, userID string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM bans WHERE tracker_id = $1 AND user_id = $2`, trackerID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete ban: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
