package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/repository"
)

// ResidenceRepository implements port.ResidenceRepository using PostgreSQL.
type ResidenceRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewResidenceRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewResidenceRepository(exec pgExecutor) *ResidenceRepository {
	return &ResidenceRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ResidenceRepository) WithTx(tx pgx.Tx) *ResidenceRepository {
	if tx == nil {
		return r
	}
	return &ResidenceRepository{
		exec:    tx,
		builder: r.builder,
	}
}

var residenceColumns = []string{
	"id",
	"external_id",
	"corporation_id",
	"city",
	"price_base",
	"min_age",
	"max_age",
	"reactions_ended_at",
	"created_at",
}

func scanResidence(row pgx.Row) (*domain.Residence, error) {
	var residence domain.Residence
	if err := row.Scan(
		&residence.ID,
		&residence.ExternalID,
		&residence.CorporationID,
		&residence.City,
		&residence.PriceBase,
		&residence.MinAge,
		&residence.MaxAge,
		&residence.ReactionsEndedAt,
		&residence.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &residence, nil
}

// GetByExternalID resolves a residence by its dedup key.
func (r *ResidenceRepository) GetByExternalID(ctx context.Context, externalID, corporationID string) (*domain.Residence, error) {
	stmt, args, err := r.builder.
		Select(residenceColumns...).
		From("woningzoeker.residences").
		Where(squirrel.Eq{"external_id": externalID}).
		Where(squirrel.Eq{"corporation_id": corporationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select residence sql: %w", err)
	}

	residence, err := scanResidence(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan residence: %w", err)
	}

	return residence, nil
}

// Create inserts a new residence row. A concurrent insert of the same
// (external_id, corporation_id) pair surfaces as ErrIntegrityViolation.
func (r *ResidenceRepository) Create(ctx context.Context, residence domain.Residence) error {
	stmt, args, err := r.builder.
		Insert("woningzoeker.residences").
		Columns(residenceColumns...).
		Values(
			residence.ID,
			residence.ExternalID,
			residence.CorporationID,
			residence.City,
			residence.PriceBase,
			residence.MinAge,
			residence.MaxAge,
			residence.ReactionsEndedAt,
			residence.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert residence sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrIntegrityViolation
		}
		return fmt.Errorf("insert residence: %w", err)
	}

	return nil
}

// SetReactionsEnded records the end-of-queue timestamp. The guard keeps the
// column write-once: a residence that already has one is left untouched.
func (r *ResidenceRepository) SetReactionsEnded(ctx context.Context, residenceID string, endedAt time.Time) error {
	stmt, args, err := r.builder.
		Update("woningzoeker.residences").
		Set("reactions_ended_at", endedAt).
		Where(squirrel.Eq{"id": residenceID}).
		Where("reactions_ended_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reactions ended sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("update reactions ended: %w", err)
	}

	return nil
}

// MatchForProfile narrows the given residence IDs to those the profile
// owner can react to: a registration of theirs must reach the residence's
// corporation, and price, city, and age restrictions must all pass.
func (r *ResidenceRepository) MatchForProfile(ctx context.Context, filter port.MatchFilter) ([]domain.Residence, error) {
	if len(filter.ResidenceIDs) == 0 {
		return nil, nil
	}

	query := r.builder.
		Select(
			"res.id",
			"res.external_id",
			"res.corporation_id",
			"res.city",
			"res.price_base",
			"res.min_age",
			"res.max_age",
			"res.reactions_ended_at",
			"res.created_at",
		).
		Distinct().
		From("woningzoeker.residences res").
		Join("woningzoeker.platform_corporations pc ON pc.corporation_id = res.corporation_id").
		Join("woningzoeker.registrations reg ON reg.platform_id = pc.platform_id").
		Where(squirrel.Eq{"res.id": filter.ResidenceIDs}).
		Where(squirrel.Eq{"reg.user_id": filter.UserID}).
		Where(squirrel.GtOrEq{"res.price_base": filter.MinPriceBase}).
		Where(squirrel.Or{
			squirrel.Eq{"res.min_age": nil},
			squirrel.LtOrEq{"res.min_age": filter.Age},
		}).
		Where(squirrel.Or{
			squirrel.Eq{"res.max_age": nil},
			squirrel.GtOrEq{"res.max_age": filter.Age},
		})

	if filter.MaxPriceBase > 0 {
		query = query.Where(squirrel.LtOrEq{"res.price_base": filter.MaxPriceBase})
	}
	// An empty city set matches nothing; squirrel renders the empty IN as a
	// false predicate.
	query = query.Where(squirrel.Eq{"res.city": filter.Cities})

	stmt, args, err := query.OrderBy("res.created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build match residences sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query matched residences: %w", err)
	}
	defer rows.Close()

	residences := make([]domain.Residence, 0)
	for rows.Next() {
		residence, err := scanResidence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan matched residence: %w", err)
		}
		residences = append(residences, *residence)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matched residences: %w", err)
	}

	return residences, nil
}

var _ port.ResidenceRepository = (*ResidenceRepository)(nil)
