package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/logger"
	"github.com/DanielHuisman/woningzoeker-backend/internal/repository"
)

// SyncService reconciles each registration's live queue state against the
// stored reactions, lazily backfilling residences the ingestion pipeline
// never saw. The per-registration network phase (session, login, fetch,
// backfill) runs with no transaction held; all staged writes are then
// applied in one transaction per registration.
type SyncService struct {
	registrations port.RegistrationRepository
	platforms     port.PlatformRepository
	corporations  port.CorporationRepository
	residences    port.ResidenceRepository
	reactions     port.ReactionRepository
	users         port.UserRepository
	scrapers      port.ScraperRegistry
	tx            port.TxManager
	notifier      port.Notifier
	reporter      port.ErrorReporter
	logger        *zap.Logger
	now           func() time.Time
}

// NewSyncService constructs the reaction synchronizer.
func NewSyncService(
	registrations port.RegistrationRepository,
	platforms port.PlatformRepository,
	corporations port.CorporationRepository,
	residences port.ResidenceRepository,
	reactions port.ReactionRepository,
	users port.UserRepository,
	scrapers port.ScraperRegistry,
	tx port.TxManager,
	notifier port.Notifier,
	reporter port.ErrorReporter,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		registrations: registrations,
		platforms:     platforms,
		corporations:  corporations,
		residences:    residences,
		reactions:     reactions,
		users:         users,
		scrapers:      scrapers,
		tx:            tx,
		notifier:      notifier,
		reporter:      reporter,
		logger:        log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one synchronization pass over all registrations. A failing
// registration never blocks the others.
func (s *SyncService) Run(ctx context.Context) RunReport {
	s.logger.Info("scraping reactions")

	report := RunReport{Job: "scrape_reactions"}
	registrations, err := s.registrations.List(ctx)
	if err != nil {
		err = fmt.Errorf("list registrations: %w", err)
		s.logger.Error("reaction sync aborted", zap.Error(err))
		s.reporter.Report(ctx, err, map[string]string{"job": report.Job})
		report.Results = append(report.Results, UnitResult{Unit: report.Job, Status: UnitFailed, Err: err})
		return report
	}

	for _, registration := range registrations {
		result := s.syncRegistration(ctx, registration)
		if result.Status == UnitFailed {
			s.logger.Error("reaction sync failed",
				zap.String("registration_id", registration.ID),
				zap.String("user_id", registration.UserID),
				zap.Error(result.Err),
			)
			s.reporter.Report(ctx, result.Err, map[string]string{
				"job":             report.Job,
				"registration_id": registration.ID,
				"user_id":         registration.UserID,
			})
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Info("finished scraping reactions", zap.Int("failed_units", report.Failed()))
	return report
}

// syncPlan stages every write decision taken during the network phase so
// the whole registration unit commits in one transaction afterwards.
type syncPlan struct {
	newResidences []domain.Residence
	newReactions  []domain.Reaction
	rankUpdates   map[string]int       // reaction ID -> observed rank
	endedAt       map[string]time.Time // residence ID -> queue end, write-once
	newlyRanked   []domain.RankedReaction
	skipped       int
}

func (s *SyncService) syncRegistration(ctx context.Context, registration domain.Registration) (result UnitResult) {
	result = UnitResult{Unit: registration.ID}
	defer func() {
		if r := recover(); r != nil {
			result.Status = UnitFailed
			result.Err = fmt.Errorf("panic syncing registration %q: %v", registration.ID, r)
		}
	}()

	platform, err := s.platforms.GetByID(ctx, registration.PlatformID)
	if err != nil {
		result.Status = UnitFailed
		result.Err = fmt.Errorf("resolve platform %q: %w", registration.PlatformID, err)
		return result
	}

	sc, ok := s.scrapers.Lookup(platform.Handle)
	if !ok {
		result.Status = UnitFailed
		result.Err = &ConfigurationError{Handle: platform.Handle}
		return result
	}

	s.logger.Info("scraping reactions for registration",
		zap.String("identifier", logger.MaskString(registration.Identifier)),
		zap.String("platform", platform.Name),
	)

	plan, err := s.reconcile(ctx, sc, platform, registration)
	if err != nil {
		result.Status = UnitFailed
		result.Err = err
		return result
	}
	result.SkippedRecords = plan.skipped

	if err := s.apply(ctx, plan); err != nil {
		result.Status = UnitFailed
		result.Err = err
		return result
	}
	result.NewlyRanked = len(plan.newlyRanked)

	if len(plan.newlyRanked) > 0 {
		s.notifyRanked(ctx, registration, plan.newlyRanked)
	}

	result.Status = UnitOK
	return result
}

// reconcile is the network phase: it logs in, fetches the registration's
// queue entries, and resolves each against stored state, backfilling unseen
// residences through single-item fetches. Only reads touch the database
// here; every write is staged on the returned plan.
func (s *SyncService) reconcile(ctx context.Context, sc port.Scraper, platform *domain.Platform, registration domain.Registration) (plan *syncPlan, err error) {
	if err := sc.StartSession(ctx); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer func() {
		if endErr := sc.EndSession(ctx); endErr != nil {
			s.logger.Warn("failed to end session",
				zap.String("platform", platform.Handle),
				zap.Error(endErr),
			)
		}
	}()

	if err := sc.Login(ctx, registration.Identifier, registration.Credentials); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	records, err := sc.Reactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch reactions: %w", err)
	}

	plan = &syncPlan{
		rankUpdates: make(map[string]int),
		endedAt:     make(map[string]time.Time),
	}
	// Residences backfilled earlier in this run, keyed by corporation
	// handle and external ID, so one listing is fetched at most once.
	backfilled := make(map[string]*domain.Residence)

	for _, record := range records {
		residence, err := s.resolveResidence(ctx, record, backfilled)
		if err != nil {
			return nil, err
		}
		if residence == nil {
			residence = s.backfillResidence(ctx, sc, platform, record, plan, backfilled)
			if residence == nil {
				plan.skipped++
				continue
			}
		}
		if err := s.stageReaction(ctx, record, *residence, registration, plan); err != nil {
			return nil, err
		}
	}

	if err := sc.Logout(ctx); err != nil {
		s.logger.Warn("failed to log out",
			zap.String("platform", platform.Handle),
			zap.Error(err),
		)
	}
	return plan, nil
}

// resolveResidence looks a reaction record up against stored and staged
// residences. A nil result with nil error means the residence is unknown.
func (s *SyncService) resolveResidence(ctx context.Context, record port.ReactionRecord, backfilled map[string]*domain.Residence) (*domain.Residence, error) {
	if residence, ok := backfilled[record.CorporationHandle+"/"+record.ExternalID]; ok {
		return residence, nil
	}

	corporation, err := s.corporations.GetByHandle(ctx, record.CorporationHandle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve corporation %q: %w", record.CorporationHandle, err)
	}

	residence, err := s.residences.GetByExternalID(ctx, record.ExternalID, corporation.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("look up residence %q: %w", record.ExternalID, err)
	}
	return residence, nil
}

// backfillResidence fetches a single unknown listing and stages it for
// creation. Any failure skips only this record: a backfill problem must not
// abort the rest of the synchronization.
func (s *SyncService) backfillResidence(ctx context.Context, sc port.Scraper, platform *domain.Platform, record port.ReactionRecord, plan *syncPlan, backfilled map[string]*domain.Residence) *domain.Residence {
	s.logger.Info("backfilling residence",
		zap.String("external_id", record.ExternalID),
		zap.String("platform", platform.Name),
	)

	candidate, err := sc.Residence(ctx, record.ExternalID)
	if err != nil {
		s.logger.Error("failed to backfill residence",
			zap.String("external_id", record.ExternalID),
			zap.String("platform", platform.Name),
			zap.Error(err),
		)
		s.reporter.Report(ctx, err, map[string]string{
			"job":         "scrape_reactions",
			"platform":    platform.Handle,
			"external_id": record.ExternalID,
		})
		return nil
	}
	if candidate == nil {
		s.logger.Info("residence no longer listed",
			zap.String("external_id", record.ExternalID),
			zap.String("platform", platform.Name),
		)
		return nil
	}

	corporationHandle := candidate.CorporationHandle
	if corporationHandle == "" {
		corporationHandle = record.CorporationHandle
	}
	corporation, err := s.corporations.GetByHandle(ctx, corporationHandle)
	if err != nil {
		s.logger.Error("backfilled residence has unknown corporation",
			zap.String("external_id", record.ExternalID),
			zap.String("corporation", corporationHandle),
			zap.Error(err),
		)
		s.reporter.Report(ctx, err, map[string]string{
			"job":         "scrape_reactions",
			"platform":    platform.Handle,
			"corporation": corporationHandle,
		})
		return nil
	}

	residence := domain.Residence{
		ID:            uuid.NewString(),
		ExternalID:    record.ExternalID,
		CorporationID: corporation.ID,
		City:          candidate.City,
		PriceBase:     candidate.PriceBase,
		MinAge:        candidate.MinAge,
		MaxAge:        candidate.MaxAge,
		CreatedAt:     s.now(),
	}
	plan.newResidences = append(plan.newResidences, residence)
	backfilled[record.CorporationHandle+"/"+record.ExternalID] = &residence
	return &residence
}

// stageReaction decides what to write for one reaction record. A rank may
// appear or change, but a nil observation never clears a stored rank, and
// the residence's queue-end timestamp is only staged while still unset.
func (s *SyncService) stageReaction(ctx context.Context, record port.ReactionRecord, residence domain.Residence, registration domain.Registration, plan *syncPlan) error {
	existing, err := s.reactions.GetByResidenceAndRegistration(ctx, residence.ID, registration.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		plan.newReactions = append(plan.newReactions, domain.Reaction{
			ID:             uuid.NewString(),
			ResidenceID:    residence.ID,
			RegistrationID: registration.ID,
			RankNumber:     record.RankNumber,
			CreatedAt:      record.CreatedAt,
			UpdatedAt:      s.now(),
		})
	case err != nil:
		return fmt.Errorf("look up reaction for residence %q: %w", residence.ID, err)
	default:
		if record.RankNumber != nil {
			if existing.RankNumber == nil {
				ranked := *existing
				ranked.RankNumber = record.RankNumber
				plan.newlyRanked = append(plan.newlyRanked, domain.RankedReaction{
					Reaction:  ranked,
					Residence: residence,
				})
			}
			plan.rankUpdates[existing.ID] = *record.RankNumber
		}
	}

	if record.EndedAt != nil && residence.ReactionsEndedAt == nil {
		if _, staged := plan.endedAt[residence.ID]; !staged {
			plan.endedAt[residence.ID] = *record.EndedAt
		}
	}
	return nil
}

// apply commits the staged plan in one transaction.
func (s *SyncService) apply(ctx context.Context, plan *syncPlan) error {
	if len(plan.newResidences) == 0 && len(plan.newReactions) == 0 &&
		len(plan.rankUpdates) == 0 && len(plan.endedAt) == 0 {
		return nil
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context, stores port.Stores) error {
		for _, residence := range plan.newResidences {
			if err := stores.Residences().Create(ctx, residence); err != nil {
				return fmt.Errorf("create backfilled residence %q: %w", residence.ExternalID, err)
			}
		}
		for _, reaction := range plan.newReactions {
			if err := stores.Reactions().Create(ctx, reaction); err != nil {
				return fmt.Errorf("create reaction for residence %q: %w", reaction.ResidenceID, err)
			}
		}
		for reactionID, rank := range plan.rankUpdates {
			if err := stores.Reactions().UpdateRank(ctx, reactionID, rank); err != nil {
				return fmt.Errorf("update rank for reaction %q: %w", reactionID, err)
			}
		}
		for residenceID, endedAt := range plan.endedAt {
			if err := stores.Residences().SetReactionsEnded(ctx, residenceID, endedAt); err != nil {
				return fmt.Errorf("set reactions ended for residence %q: %w", residenceID, err)
			}
		}
		return nil
	})
}

func (s *SyncService) notifyRanked(ctx context.Context, registration domain.Registration, ranked []domain.RankedReaction) {
	user, err := s.users.GetByID(ctx, registration.UserID)
	if err != nil {
		s.logger.Error("failed to resolve user for reaction notification",
			zap.String("user_id", registration.UserID),
			zap.Error(err),
		)
		return
	}

	event := domain.ReactionsRankedEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		Username:   user.Username,
		Reactions:  ranked,
		ObservedAt: s.now(),
	}
	if err := s.notifier.NotifyReactions(ctx, event); err != nil {
		s.logger.Error("failed to publish reaction notification",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("notified user of newly ranked reactions",
		zap.String("user_id", user.ID),
		zap.Int("reactions", len(ranked)),
	)
}
