package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/config"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/metrics"
)

const schemaVersion = "1.0"

const (
	topicResidencesMatched = "residences.matched"
	topicReactionsRanked   = "reactions.ranked"
)

// Notifier implements port.Notifier by publishing notification events to
// Kafka. The delivery service consumes these topics and picks the channel.
type Notifier struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
	metrics  *metrics.Metrics
}

// NewNotifier constructs a Kafka-backed notifier.
func NewNotifier(producer *Producer, appCfg config.AppSettings, m *metrics.Metrics, logger *zap.Logger) *Notifier {
	return &Notifier{producer: producer, appCfg: appCfg, metrics: m, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (n *Notifier) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     n.appCfg.Name,
			"environment": n.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: n.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case n.producer.producer.Input() <- message:
		if n.metrics != nil {
			n.metrics.NotificationsPublished.WithLabelValues(eventType).Inc()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type residencePayload struct {
	ID        string     `json:"id"`
	City      string     `json:"city"`
	PriceBase int        `json:"price_base"`
	MinAge    *int       `json:"min_age,omitempty"`
	MaxAge    *int       `json:"max_age,omitempty"`
	EndedAt   *time.Time `json:"reactions_ended_at,omitempty"`
}

func toResidencePayload(r domain.Residence) residencePayload {
	return residencePayload{
		ID:        r.ID,
		City:      r.City,
		PriceBase: r.PriceBase,
		MinAge:    r.MinAge,
		MaxAge:    r.MaxAge,
		EndedAt:   r.ReactionsEndedAt,
	}
}

// NotifyResidences publishes woningzoeker.residences.matched events.
func (n *Notifier) NotifyResidences(ctx context.Context, event domain.ResidencesMatchedEvent) error {
	residences := make([]residencePayload, 0, len(event.Residences))
	for _, r := range event.Residences {
		residences = append(residences, toResidencePayload(r))
	}

	payload := struct {
		Username   string             `json:"username"`
		Residences []residencePayload `json:"residences"`
	}{
		Username:   event.Username,
		Residences: residences,
	}

	return n.publish(ctx, event.EventID, topicResidencesMatched, event.UserID, event.MatchedAt, payload)
}

// NotifyReactions publishes woningzoeker.reactions.ranked events.
func (n *Notifier) NotifyReactions(ctx context.Context, event domain.ReactionsRankedEvent) error {
	type rankedPayload struct {
		ReactionID string           `json:"reaction_id"`
		RankNumber *int             `json:"rank_number"`
		Residence  residencePayload `json:"residence"`
	}

	reactions := make([]rankedPayload, 0, len(event.Reactions))
	for _, r := range event.Reactions {
		reactions = append(reactions, rankedPayload{
			ReactionID: r.Reaction.ID,
			RankNumber: r.Reaction.RankNumber,
			Residence:  toResidencePayload(r.Residence),
		})
	}

	payload := struct {
		Username  string          `json:"username"`
		Reactions []rankedPayload `json:"reactions"`
	}{
		Username:  event.Username,
		Reactions: reactions,
	}

	return n.publish(ctx, event.EventID, topicReactionsRanked, event.UserID, event.ObservedAt, payload)
}

var _ port.Notifier = (*Notifier)(nil)
