package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// txBeginner is the slice of pgxpool.Pool the transaction manager needs.
// Mocks satisfy it too.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager implements port.TxManager on top of a pgx pool.
type TxManager struct {
	db           txBeginner
	residences   *ResidenceRepository
	corporations *CorporationRepository
	reactions    *ReactionRepository
}

// NewTxManager wires a transaction manager around the pool-backed repositories.
func NewTxManager(db txBeginner, residences *ResidenceRepository, corporations *CorporationRepository, reactions *ReactionRepository) *TxManager {
	return &TxManager{
		db:           db,
		residences:   residences,
		corporations: corporations,
		reactions:    reactions,
	}
}

// WithinTx runs fn inside one transaction. Any error from fn, including a
// repanic after rollback, leaves the database untouched.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, stores port.Stores) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	stores := &txStores{
		residences:   m.residences.WithTx(tx),
		corporations: m.corporations.WithTx(tx),
		reactions:    m.reactions.WithTx(tx),
	}

	if err := fn(ctx, stores); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("rollback transaction: %w (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type txStores struct {
	residences   *ResidenceRepository
	corporations *CorporationRepository
	reactions    *ReactionRepository
}

func (s *txStores) Residences() port.ResidenceRepository     { return s.residences }
func (s *txStores) Corporations() port.CorporationRepository { return s.corporations }
func (s *txStores) Reactions() port.ReactionRepository       { return s.reactions }

var _ port.TxManager = (*TxManager)(nil)
