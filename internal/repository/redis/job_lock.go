// Package redis holds the Redis-backed repository implementations.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// JobLock implements port.JobLocker with SET NX and a TTL. The TTL is the
// recovery path for locks leaked by a crashed worker.
type JobLock struct {
	client *redis.Client
	prefix string
}

// NewJobLock constructs a Redis-backed job lock with the given key prefix.
func NewJobLock(client *redis.Client, prefix string) *JobLock {
	if prefix == "" {
		prefix = "job-lock"
	}
	return &JobLock{
		client: client,
		prefix: prefix,
	}
}

func (l *JobLock) key(name string) string {
	return fmt.Sprintf("%s:%s", l.prefix, name)
}

// Acquire takes the named lock. It returns false without error when another
// worker already holds it.
func (l *JobLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key(name), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire job lock %q: %w", name, err)
	}
	return acquired, nil
}

// Release drops the named lock. Releasing a lock that already expired is not
// an error.
func (l *JobLock) Release(ctx context.Context, name string) error {
	if err := l.client.Del(ctx, l.key(name)).Err(); err != nil {
		return fmt.Errorf("release job lock %q: %w", name, err)
	}
	return nil
}

var _ port.JobLocker = (*JobLock)(nil)
