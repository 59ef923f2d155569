package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// MatchService filters newly ingested residences against every saved search
// profile and notifies users with a non-empty match. Matching is read-only.
type MatchService struct {
	profiles   port.ProfileRepository
	residences port.ResidenceRepository
	users      port.UserRepository
	notifier   port.Notifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewMatchService constructs the profile matcher.
func NewMatchService(
	profiles port.ProfileRepository,
	residences port.ResidenceRepository,
	users port.UserRepository,
	notifier port.Notifier,
	logger *zap.Logger,
) *MatchService {
	return &MatchService{
		profiles:   profiles,
		residences: residences,
		users:      users,
		notifier:   notifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MatchNew computes the eligible subset of the given residence IDs for each
// profile. Eligibility requires a registration path from the profile owner
// to the residence's corporation plus the profile's price, city, and age
// criteria.
func (s *MatchService) MatchNew(ctx context.Context, residenceIDs []string) error {
	if len(residenceIDs) == 0 {
		return nil
	}

	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	matchedAt := s.now()
	for _, profile := range profiles {
		if len(profile.Cities) == 0 {
			// A profile without cities can never match a residence.
			continue
		}
		matches, err := s.residences.MatchForProfile(ctx, port.MatchFilter{
			ResidenceIDs: residenceIDs,
			UserID:       profile.UserID,
			MinPriceBase: profile.MinPriceBase,
			MaxPriceBase: profile.MaxPriceBase,
			Cities:       profile.Cities,
			Age:          profile.Age(matchedAt),
		})
		if err != nil {
			return fmt.Errorf("match residences for profile %q: %w", profile.ID, err)
		}
		if len(matches) == 0 {
			continue
		}

		user, err := s.users.GetByID(ctx, profile.UserID)
		if err != nil {
			return fmt.Errorf("resolve user %q: %w", profile.UserID, err)
		}

		event := domain.ResidencesMatchedEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			Username:   user.Username,
			Residences: matches,
			MatchedAt:  matchedAt,
		}
		if err := s.notifier.NotifyResidences(ctx, event); err != nil {
			// Fire-and-forget: delivery is the notification service's
			// concern, a publish failure must not fail the unit.
			s.logger.Error("failed to publish residence notification",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("notified user of new residences",
			zap.String("user_id", user.ID),
			zap.Int("residences", len(matches)),
		)
	}
	return nil
}
