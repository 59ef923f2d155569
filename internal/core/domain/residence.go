package domain

import "time"

// Residence is one scraped rental listing. The pair (ExternalID,
// CorporationID) is the dedup key and must stay globally unique.
type Residence struct {
	ID            string
	ExternalID    string
	CorporationID string
	City          string
	PriceBase     int
	MinAge        *int
	MaxAge        *int
	// ReactionsEndedAt is set once when the platform reports the queue
	// closed and never changes afterwards.
	ReactionsEndedAt *time.Time
	CreatedAt        time.Time
}

// Reaction is a registration's queue entry on a residence, unique per
// (ResidenceID, RegistrationID). RankNumber stays nil until the platform
// reveals the queue position; a nil observation never clears a known rank.
type Reaction struct {
	ID             string
	ResidenceID    string
	RegistrationID string
	RankNumber     *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
