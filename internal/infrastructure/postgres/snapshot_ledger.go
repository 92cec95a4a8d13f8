package postgres

import (
	"context"
	"fmt"
	"tracker-service/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type snapshotLedger struct {
	pool *pgxpool.Pool
}

// NewSnapshotLedger creates a snapshot ledger backed by the snapshot_posts table,
// used when Redis is disabled
func NewSnapshotLedger(pool *pgxpool.Pool) repository.SnapshotLedger {
	return &snapshotLedger{pool: pool}
}

func (l *snapshotLedger) MarkPosted(ctx context.Context, trackerID, period string) (bool, error) {
	query := `
		INSERT INTO snapshot_posts (tracker_id, period)
		VALUES ($1, $2)
		ON CONFLICT (tracker_id, period) DO NOTHING
	`

	result, err := l.pool.Exec(ctx, query, trackerID, period)
	if err != nil {
		return false, fmt.Errorf("failed to mark snapshot: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (l *snapshotLedger) Release(ctx context.Context, trackerID, period string) error {
	if _, err := l.pool.Exec(ctx, `DELETE FROM snapshot_posts WHERE tracker_id = $1 AND period = $2`, trackerID, period); err != nil {
		return fmt.Errorf("failed to release snapshot: %w", err)
	}
	return nil
}
