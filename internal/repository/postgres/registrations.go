package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// RegistrationRepository implements port.RegistrationRepository using PostgreSQL.
type RegistrationRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRegistrationRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewRegistrationRepository(exec pgExecutor) *RegistrationRepository {
	return &RegistrationRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns every registration, oldest first.
func (r *RegistrationRepository) List(ctx context.Context) ([]domain.Registration, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "platform_id", "identifier", "credentials", "created_at").
		From("woningzoeker.registrations").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list registrations sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]domain.Registration, 0)
	for rows.Next() {
		var registration domain.Registration
		if err := rows.Scan(
			&registration.ID,
			&registration.UserID,
			&registration.PlatformID,
			&registration.Identifier,
			&registration.Credentials,
			&registration.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		registrations = append(registrations, registration)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	return registrations, nil
}

var _ port.RegistrationRepository = (*RegistrationRepository)(nil)
