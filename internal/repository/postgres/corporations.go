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

// CorporationRepository implements port.CorporationRepository using PostgreSQL.
type CorporationRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCorporationRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewCorporationRepository(exec pgExecutor) *CorporationRepository {
	return &CorporationRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *CorporationRepository) WithTx(tx pgx.Tx) *CorporationRepository {
	if tx == nil {
		return r
	}
	return &CorporationRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// GetByHandle retrieves a corporation by its stable handle.
func (r *CorporationRepository) GetByHandle(ctx context.Context, handle string) (*domain.Corporation, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "handle").
		From("woningzoeker.corporations").
		Where(squirrel.Eq{"handle": handle}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select corporation sql: %w", err)
	}

	var corporation domain.Corporation
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&corporation.ID, &corporation.Name, &corporation.Handle); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan corporation: %w", err)
	}

	return &corporation, nil
}

// AddCity records the city in the corporation's city set. Re-adding a known
// city is a no-op.
func (r *CorporationRepository) AddCity(ctx context.Context, corporationID, city string) error {
	stmt, args, err := r.builder.
		Insert("woningzoeker.corporation_cities").
		Columns("corporation_id", "city").
		Values(corporationID, city).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert corporation city sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert corporation city: %w", err)
	}

	return nil
}

var _ port.CorporationRepository = (*CorporationRepository)(nil)
