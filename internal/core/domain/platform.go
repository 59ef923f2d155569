package domain

import "time"

// Platform is an external rental-listing service. The handle is the stable
// machine key used to route registrations to the matching scraper.
type Platform struct {
	ID     string
	Name   string
	Handle string
}

// Corporation is a landlord or housing association whose listings are
// scraped, possibly through more than one platform.
type Corporation struct {
	ID     string
	Name   string
	Handle string
}

// Registration is a user's authenticated account at one platform. The
// credentials arrive decrypted from the credential store by the time a
// scraper sees them.
type Registration struct {
	ID          string
	UserID      string
	PlatformID  string
	Identifier  string
	Credentials string
	CreatedAt   time.Time
}
