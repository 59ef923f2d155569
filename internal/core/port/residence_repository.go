package port

import (
	"context"
	"time"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
)

// MatchFilter restricts a set of residence IDs to those eligible for one
// profile. MaxPriceBase of zero means no price ceiling.
type MatchFilter struct {
	ResidenceIDs []string
	UserID       string
	MinPriceBase int
	MaxPriceBase int
	Cities       []string
	Age          int
}

// ResidenceRepository exposes persistence behavior for residences.
type ResidenceRepository interface {
	// GetByExternalID resolves a residence by its dedup key.
	GetByExternalID(ctx context.Context, externalID, corporationID string) (*domain.Residence, error)
	Create(ctx context.Context, residence domain.Residence) error
	// SetReactionsEnded records the end-of-queue timestamp. The column is
	// write-once: a residence that already has one keeps it.
	SetReactionsEnded(ctx context.Context, residenceID string, endedAt time.Time) error
	// MatchForProfile returns the residences from the filter's ID set the
	// profile owner can react to through their registrations.
	MatchForProfile(ctx context.Context, filter MatchFilter) ([]domain.Residence, error)
}

// ReactionRepository exposes persistence behavior for reactions.
type ReactionRepository interface {
	GetByResidenceAndRegistration(ctx context.Context, residenceID, registrationID string) (*domain.Reaction, error)
	Create(ctx context.Context, reaction domain.Reaction) error
	UpdateRank(ctx context.Context, reactionID string, rank int) error
}
