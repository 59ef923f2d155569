package port

import "context"

// Stores groups the repositories that participate in one atomic unit of
// work. All writes made through a Stores instance inside WithinTx commit or
// roll back together.
type Stores interface {
	Residences() ResidenceRepository
	Corporations() CorporationRepository
	Reactions() ReactionRepository
}

// TxManager scopes a function to one database transaction. An error from fn
// rolls the transaction back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
