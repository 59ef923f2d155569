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
	"github.com/DanielHuisman/woningzoeker-backend/internal/repository"
)

// IngestService runs every registered scraper, persists unseen residences,
// and feeds the newly created set to the profile matcher. Each scraper is
// one unit: its network phase happens entirely before its persistence phase,
// and its persistence is one transaction.
type IngestService struct {
	scrapers  port.ScraperRegistry
	platforms port.PlatformRepository
	tx        port.TxManager
	matcher   *MatchService
	reporter  port.ErrorReporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewIngestService constructs the residence ingestion pipeline.
func NewIngestService(
	scrapers port.ScraperRegistry,
	platforms port.PlatformRepository,
	tx port.TxManager,
	matcher *MatchService,
	reporter port.ErrorReporter,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		scrapers:  scrapers,
		platforms: platforms,
		tx:        tx,
		matcher:   matcher,
		reporter:  reporter,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one ingestion pass over all scrapers. A failing scraper never
// blocks the others; every failure is logged and reported with the platform
// handle it belongs to.
func (s *IngestService) Run(ctx context.Context) RunReport {
	s.logger.Info("scraping residences")

	report := RunReport{Job: "scrape_residences"}
	for _, sc := range s.scrapers.All() {
		result := s.runScraper(ctx, sc)
		if result.Status == UnitFailed {
			s.logger.Error("residence scrape failed",
				zap.String("platform", result.Unit),
				zap.Error(result.Err),
			)
			s.reporter.Report(ctx, result.Err, map[string]string{
				"job":      report.Job,
				"platform": result.Unit,
			})
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Info("finished scraping residences",
		zap.Int("new_residences", report.NewResidences()),
		zap.Int("failed_units", report.Failed()),
	)
	return report
}

func (s *IngestService) runScraper(ctx context.Context, sc port.Scraper) (result UnitResult) {
	result = UnitResult{Unit: sc.Handle()}
	defer func() {
		if r := recover(); r != nil {
			result.Status = UnitFailed
			result.Err = fmt.Errorf("panic in scraper %q: %v", sc.Handle(), r)
		}
	}()

	platform, err := s.platforms.GetByHandle(ctx, sc.Handle())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = &ConfigurationError{Handle: sc.Handle()}
		}
		result.Status = UnitFailed
		result.Err = err
		return result
	}

	s.logger.Info("scraping residences at platform", zap.String("platform", platform.Name))

	candidates, err := s.collect(ctx, sc)
	if err != nil {
		result.Status = UnitFailed
		result.Err = err
		return result
	}

	newIDs, err := s.persist(ctx, sc.Handle(), candidates)
	if err != nil {
		result.Status = UnitFailed
		result.Err = err
		return result
	}
	result.NewResidences = len(newIDs)

	if err := s.matcher.MatchNew(ctx, newIDs); err != nil {
		result.Status = UnitFailed
		result.Err = fmt.Errorf("match new residences: %w", err)
		return result
	}

	result.Status = UnitOK
	return result
}

// collect performs the network phase: open a session, fetch the full
// listing, close the session. No transaction is held while it runs.
func (s *IngestService) collect(ctx context.Context, sc port.Scraper) (candidates []port.ResidenceCandidate, err error) {
	if err := sc.StartSession(ctx); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer func() {
		if endErr := sc.EndSession(ctx); endErr != nil && err == nil {
			err = fmt.Errorf("end session: %w", endErr)
		}
	}()

	candidates, err = sc.Residences(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch residences: %w", err)
	}
	return candidates, nil
}

// persist writes all unseen candidates of one scraper run atomically and
// returns the IDs of the residences it created.
func (s *IngestService) persist(ctx context.Context, handle string, candidates []port.ResidenceCandidate) ([]string, error) {
	var newIDs []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores port.Stores) error {
		newIDs = newIDs[:0]
		for _, candidate := range candidates {
			if candidate.CorporationHandle == "" {
				return fmt.Errorf("residence %q at platform %q is missing a corporation", candidate.ExternalID, handle)
			}

			corporation, err := stores.Corporations().GetByHandle(ctx, candidate.CorporationHandle)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("residence %q: unknown corporation %q", candidate.ExternalID, candidate.CorporationHandle)
				}
				return fmt.Errorf("resolve corporation %q: %w", candidate.CorporationHandle, err)
			}

			_, err = stores.Residences().GetByExternalID(ctx, candidate.ExternalID, corporation.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("look up residence %q: %w", candidate.ExternalID, err)
			}

			residence := domain.Residence{
				ID:            uuid.NewString(),
				ExternalID:    candidate.ExternalID,
				CorporationID: corporation.ID,
				City:          candidate.City,
				PriceBase:     candidate.PriceBase,
				MinAge:        candidate.MinAge,
				MaxAge:        candidate.MaxAge,
				CreatedAt:     s.now(),
			}
			if err := stores.Residences().Create(ctx, residence); err != nil {
				return fmt.Errorf("create residence %q: %w", candidate.ExternalID, err)
			}
			if err := stores.Corporations().AddCity(ctx, corporation.ID, candidate.City); err != nil {
				return fmt.Errorf("add city %q to corporation %q: %w", candidate.City, corporation.Handle, err)
			}
			newIDs = append(newIDs, residence.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newIDs, nil
}
