package redis

import (
	"context"
	"fmt"
	"time"

	"tracker-service/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const snapshotPrefix = "tracker:snapshot:"

type snapshotLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotLedger creates a snapshot ledger whose markers expire after ttl
func NewSnapshotLedger(client *redis.Client, ttl time.Duration) repository.SnapshotLedger {
	if ttl <= 0 {
		ttl = 8 * 24 * time.Hour
	}
	return &snapshotLedger{client: client, ttl: ttl}
}

func snapshotKey(trackerID, period string) string {
	return fmt.Sprintf("%s%s:%s", snapshotPrefix, trackerID, period)
}

func (l *snapshotLedger) MarkPosted(ctx context.Context, trackerID, period string) (bool, error) {
	ok, err := l.client.SetNX(ctx, snapshotKey(trackerID, period), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark snapshot: %w", err)
	}
	return ok, nil
}

func (l *snapshotLedger) Release(ctx context.Context, trackerID, period string) error {
	if err := l.client.Del(ctx, snapshotKey(trackerID, period)).Err(); err != nil {
		return fmt.Errorf("failed to release snapshot: %w", err)
	}
	return nil
}
