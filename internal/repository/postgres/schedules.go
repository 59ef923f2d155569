package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/repository"
)

// ScheduleRepository implements port.ScheduleStore using PostgreSQL.
type ScheduleRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewScheduleRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewScheduleRepository(exec pgExecutor) *ScheduleRepository {
	return &ScheduleRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// EnsureScheduled inserts the schedule unless one with the same name exists.
func (r *ScheduleRepository) EnsureScheduled(ctx context.Context, schedule domain.Schedule) error {
	stmt, args, err := r.builder.
		Insert("woningzoeker.schedules").
		Columns("name", "cron_expr", "next_run_at", "last_run_at", "created_at").
		Values(schedule.Name, schedule.CronExpr, schedule.NextRunAt, schedule.LastRunAt, schedule.CreatedAt).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert schedule sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	return nil
}

// Due returns the schedules whose next run is at or before now.
func (r *ScheduleRepository) Due(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	stmt, args, err := r.builder.
		Select("name", "cron_expr", "next_run_at", "last_run_at", "created_at").
		From("woningzoeker.schedules").
		Where(squirrel.LtOrEq{"next_run_at": now}).
		OrderBy("next_run_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due schedules sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query due schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]domain.Schedule, 0)
	for rows.Next() {
		var schedule domain.Schedule
		if err := rows.Scan(
			&schedule.Name,
			&schedule.CronExpr,
			&schedule.NextRunAt,
			&schedule.LastRunAt,
			&schedule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	return schedules, nil
}

// Complete records a finished run and the next due time.
func (r *ScheduleRepository) Complete(ctx context.Context, name string, ranAt, nextRunAt time.Time) error {
	stmt, args, err := r.builder.
		Update("woningzoeker.schedules").
		Set("last_run_at", ranAt).
		Set("next_run_at", nextRunAt).
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build complete schedule sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("complete schedule: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.ScheduleStore = (*ScheduleRepository)(nil)
