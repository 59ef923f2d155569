package domain

import "time"

// Schedule is one durable recurring job entry. Name is the dedup key, so
// re-registering a schedule at startup is a no-op when it already exists.
type Schedule struct {
	Name      string
	CronExpr  string
	NextRunAt time.Time
	LastRunAt *time.Time
	CreatedAt time.Time
}
