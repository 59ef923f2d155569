package port

import (
	"context"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
)

// PlatformRepository exposes persistence behavior for platforms.
type PlatformRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Platform, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Platform, error)
}

// CorporationRepository exposes persistence behavior for corporations and
// their append-only city sets.
type CorporationRepository interface {
	GetByHandle(ctx context.Context, handle string) (*domain.Corporation, error)
	// AddCity records the city in the corporation's city set. Adding a city
	// that is already present is a no-op.
	AddCity(ctx context.Context, corporationID, city string) error
}

// RegistrationRepository exposes persistence behavior for registrations.
type RegistrationRepository interface {
	List(ctx context.Context) ([]domain.Registration, error)
}

// UserRepository resolves the local users notifications are addressed to.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// ProfileRepository exposes the saved search profiles used for matching.
type ProfileRepository interface {
	List(ctx context.Context) ([]domain.Profile, error)
}
