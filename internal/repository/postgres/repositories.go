package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Platforms     *PlatformRepository
	Corporations  *CorporationRepository
	Registrations *RegistrationRepository
	Residences    *ResidenceRepository
	Reactions     *ReactionRepository
	Profiles      *ProfileRepository
	Users         *UserRepository
	Schedules     *ScheduleRepository
	Tx            *TxManager
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	residences := NewResidenceRepository(pool)
	corporations := NewCorporationRepository(pool)
	reactions := NewReactionRepository(pool)

	return &Repositories{
		Platforms:     NewPlatformRepository(pool),
		Corporations:  corporations,
		Registrations: NewRegistrationRepository(pool),
		Residences:    residences,
		Reactions:     reactions,
		Profiles:      NewProfileRepository(pool),
		Users:         NewUserRepository(pool),
		Schedules:     NewScheduleRepository(pool),
		Tx:            NewTxManager(pool, residences, corporations, reactions),
	}
}
