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

// ReactionRepository implements port.ReactionRepository using PostgreSQL.
type ReactionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewReactionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewReactionRepository(exec pgExecutor) *ReactionRepository {
	return &ReactionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ReactionRepository) WithTx(tx pgx.Tx) *ReactionRepository {
	if tx == nil {
		return r
	}
	return &ReactionRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// GetByResidenceAndRegistration resolves a reaction by its dedup key.
func (r *ReactionRepository) GetByResidenceAndRegistration(ctx context.Context, residenceID, registrationID string) (*domain.Reaction, error) {
	stmt, args, err := r.builder.
		Select("id", "residence_id", "registration_id", "rank_number", "created_at", "updated_at").
		From("woningzoeker.reactions").
		Where(squirrel.Eq{"residence_id": residenceID}).
		Where(squirrel.Eq{"registration_id": registrationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reaction sql: %w", err)
	}

	var reaction domain.Reaction
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(
		&reaction.ID,
		&reaction.ResidenceID,
		&reaction.RegistrationID,
		&reaction.RankNumber,
		&reaction.CreatedAt,
		&reaction.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reaction: %w", err)
	}

	return &reaction, nil
}

// Create inserts a new reaction row. A concurrent insert of the same
// (residence_id, registration_id) pair surfaces as ErrIntegrityViolation.
func (r *ReactionRepository) Create(ctx context.Context, reaction domain.Reaction) error {
	stmt, args, err := r.builder.
		Insert("woningzoeker.reactions").
		Columns("id", "residence_id", "registration_id", "rank_number", "created_at", "updated_at").
		Values(
			reaction.ID,
			reaction.ResidenceID,
			reaction.RegistrationID,
			reaction.RankNumber,
			reaction.CreatedAt,
			reaction.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reaction sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrIntegrityViolation
		}
		return fmt.Errorf("insert reaction: %w", err)
	}

	return nil
}

// UpdateRank writes a revealed queue position.
func (r *ReactionRepository) UpdateRank(ctx context.Context, reactionID string, rank int) error {
	stmt, args, err := r.builder.
		Update("woningzoeker.reactions").
		Set("rank_number", rank).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": reactionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reaction rank sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update reaction rank: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.ReactionRepository = (*ReactionRepository)(nil)
