package port

import (
	"context"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
)

// Notifier hands notification events to the delivery service. Publishing is
// fire-and-forget from the core's perspective; delivery failures are the
// collaborator's concern and are not retried here.
type Notifier interface {
	NotifyResidences(ctx context.Context, event domain.ResidencesMatchedEvent) error
	NotifyReactions(ctx context.Context, event domain.ReactionsRankedEvent) error
}
