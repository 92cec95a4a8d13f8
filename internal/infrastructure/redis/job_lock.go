package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const jobLockPrefix = "tracker:lock:"

// releaseScript deletes the lock only if it still belongs to the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// JobLock serialises scheduled jobs across service replicas
type JobLock struct {
	client *redis.Client
	logger *zap.Logger
}

// NewJobLock creates a new job lock
func NewJobLock(client *redis.Client, logger *zap.Logger) *JobLock {
	return &JobLock{
		client: client,
		logger: logger,
	}
}

func (l *JobLock) lockKey(job string) string {
	return jobLockPrefix + job
}

// TryLock claims the job for ttl. ok is false when another replica holds it.
func (l *JobLock) TryLock(ctx context.Context, job string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	key := l.lockKey(job)

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.release(ctx, job, token)
	}
	return unlock, true, nil
}

// release drops the lock if it is still ours; a failure only delays the next run until the TTL expires
func (l *JobLock) release(ctx context.Context, job, token string) {
	err := releaseScript.Run(ctx, l.client, []string{l.lockKey(job)}, token).Err()
	if err != nil && err != redis.Nil {
		l.logger.Warn("Failed to release job lock", zap.String("job", job), zap.Error(err))
	}
}
