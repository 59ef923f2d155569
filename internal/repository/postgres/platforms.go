package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/repository"
)

// PlatformRepository implements port.PlatformRepository using PostgreSQL.
type PlatformRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPlatformRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewPlatformRepository(exec pgExecutor) *PlatformRepository {
	return &PlatformRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a platform by identifier.
func (r *PlatformRepository) GetByID(ctx context.Context, id string) (*domain.Platform, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "handle").
		From("woningzoeker.platforms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select platform sql: %w", err)
	}

	var platform domain.Platform
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&platform.ID, &platform.Name, &platform.Handle); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan platform: %w", err)
	}

	return &platform, nil
}

// GetByHandle retrieves a platform by its stable handle.
func (r *PlatformRepository) GetByHandle(ctx context.Context, handle string) (*domain.Platform, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "handle").
		From("woningzoeker.platforms").
		Where(squirrel.Eq{"handle": handle}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select platform by handle sql: %w", err)
	}

	var platform domain.Platform
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&platform.ID, &platform.Name, &platform.Handle); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan platform by handle: %w", err)
	}

	return &platform, nil
}

var _ port.PlatformRepository = (*PlatformRepository)(nil)
