package port

import (
	"context"
	"time"
)

// ResidenceCandidate is one listing as a scraper saw it, before it is
// resolved against persisted state. CorporationHandle must be present; a
// candidate without one is fatal to that provider's run.
type ResidenceCandidate struct {
	ExternalID        string
	CorporationHandle string
	City              string
	PriceBase         int
	MinAge            *int
	MaxAge            *int
}

// ReactionRecord is one queue entry of the logged-in user as reported by a
// platform. RankNumber is nil while the platform keeps the position hidden.
type ReactionRecord struct {
	ExternalID        string
	CorporationHandle string
	RankNumber        *int
	CreatedAt         time.Time
	EndedAt           *time.Time
}

// Scraper is the capability one provider integration implements. Sessions
// are scoped: StartSession and EndSession are called exactly once per run,
// and EndSession must run on every exit path. Login and Logout are only
// meaningful inside a session. Residences is one pass per call and is not
// restartable within the same session.
type Scraper interface {
	// Handle returns the stable platform key this scraper serves.
	Handle() string

	StartSession(ctx context.Context) error
	EndSession(ctx context.Context) error

	Login(ctx context.Context, identifier, credentials string) error
	Logout(ctx context.Context) error

	// Residences fetches the public listing. Unauthenticated.
	Residences(ctx context.Context) ([]ResidenceCandidate, error)

	// Residence fetches a single listing by external id. A (nil, nil)
	// return means the listing no longer exists, which is not an error.
	Residence(ctx context.Context, externalID string) (*ResidenceCandidate, error)

	// Reactions fetches the logged-in user's current queue standing.
	Reactions(ctx context.Context) ([]ReactionRecord, error)
}

// ScraperRegistry resolves scrapers by platform handle. Implementations are
// built once at startup from the fixed set of provider integrations.
type ScraperRegistry interface {
	All() []Scraper
	Lookup(handle string) (Scraper, bool)
}
