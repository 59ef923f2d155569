package port

import (
	"context"
	"time"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
)

// ScheduleStore is the durable schedule the worker pool polls.
type ScheduleStore interface {
	// EnsureScheduled registers the schedule if no schedule with the same
	// name exists yet. Idempotent on the name.
	EnsureScheduled(ctx context.Context, schedule domain.Schedule) error
	// Due returns the schedules whose next run is at or before now.
	Due(ctx context.Context, now time.Time) ([]domain.Schedule, error)
	// Complete records a finished run and the next due time.
	Complete(ctx context.Context, name string, ranAt, nextRunAt time.Time) error
}

// JobLocker serializes job execution across workers. Acquire returns false
// without error when another worker already holds the lock; the TTL is the
// backstop against locks leaked by a killed worker.
type JobLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}
