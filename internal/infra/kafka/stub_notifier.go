package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// StubNotifier logs notification events instead of publishing them. Used
// when no Kafka brokers are configured, typically in development.
type StubNotifier struct {
	logger *zap.Logger
}

// NewStubNotifier constructs a development-friendly notifier.
func NewStubNotifier(logger *zap.Logger) *StubNotifier {
	return &StubNotifier{logger: logger}
}

// NotifyResidences logs residences.matched events.
func (n *StubNotifier) NotifyResidences(_ context.Context, event domain.ResidencesMatchedEvent) error {
	n.logger.Info("stub notification published",
		zap.String("event_type", topicResidencesMatched),
		zap.String("user_id", event.UserID),
		zap.Int("residences", len(event.Residences)),
	)
	return nil
}

// NotifyReactions logs reactions.ranked events.
func (n *StubNotifier) NotifyReactions(_ context.Context, event domain.ReactionsRankedEvent) error {
	n.logger.Info("stub notification published",
		zap.String("event_type", topicReactionsRanked),
		zap.String("user_id", event.UserID),
		zap.Int("reactions", len(event.Reactions)),
	)
	return nil
}

var _ port.Notifier = (*StubNotifier)(nil)
