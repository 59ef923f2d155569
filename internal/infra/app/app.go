package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/config"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/database"
	kafkainfra "github.com/DanielHuisman/woningzoeker-backend/internal/infra/kafka"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/logger"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/metrics"
	redisinfra "github.com/DanielHuisman/woningzoeker-backend/internal/infra/redis"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/scheduler"
	sentryinfra "github.com/DanielHuisman/woningzoeker-backend/internal/infra/sentry"
	postgresrepo "github.com/DanielHuisman/woningzoeker-backend/internal/repository/postgres"
	redisrepo "github.com/DanielHuisman/woningzoeker-backend/internal/repository/redis"
	"github.com/DanielHuisman/woningzoeker-backend/internal/scraper"
	"github.com/DanielHuisman/woningzoeker-backend/internal/scraper/hofwonen"
	"github.com/DanielHuisman/woningzoeker-backend/internal/scraper/stadswoning"
	"github.com/DanielHuisman/woningzoeker-backend/internal/transport/http/routes"
	"github.com/DanielHuisman/woningzoeker-backend/internal/usecase"
)

const (
	jobScrapeResidences = "scrape_residences"
	jobScrapeReactions  = "scrape_reactions"
)

// Application wires the scraping worker: the scheduler executing the two
// recurring jobs and the operational HTTP surface.
type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	producer  *kafkainfra.Producer
	reporter  port.ErrorReporter
	scheduler *scheduler.Scheduler
	ingest    *usecase.IngestService
	sync      *usecase.SyncService
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var reporter port.ErrorReporter
	if cfg.Sentry.DSN != "" {
		sentryReporter, err := sentryinfra.New(cfg.Sentry.DSN, cfg.Sentry.Environment, cfg.App.Name, log)
		if err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
		reporter = sentryReporter
	} else {
		log.Info("sentry dsn not configured, errors are reported to the log only")
		reporter = sentryinfra.NewLogReporter(log)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	m := metrics.New()
	repos := postgresrepo.NewRepositories(pool)

	var notifier port.Notifier
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub notifier", zap.Error(err))
			notifier = kafkainfra.NewStubNotifier(log)
		} else {
			notifier = kafkainfra.NewNotifier(producer, cfg.App, m, log)
			log.Info("kafka notifier initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub notifier")
		notifier = kafkainfra.NewStubNotifier(log)
	}

	registry, err := scraper.NewRegistry(
		hofwonen.New(hofwonen.Config{
			BaseURL:   cfg.Scrapers.Hofwonen.BaseURL,
			UserAgent: cfg.Scrapers.Hofwonen.UserAgent,
			Timeout:   cfg.Scrapers.Hofwonen.Timeout,
		}, log),
		stadswoning.New(stadswoning.Config{
			BaseURL:   cfg.Scrapers.Stadswoning.BaseURL,
			UserAgent: cfg.Scrapers.Stadswoning.UserAgent,
			Timeout:   cfg.Scrapers.Stadswoning.Timeout,
		}, log),
	)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init scraper registry: %w", err)
	}

	matchService := usecase.NewMatchService(repos.Profiles, repos.Residences, repos.Users, notifier, log)
	ingestService := usecase.NewIngestService(registry, repos.Platforms, repos.Tx, matchService, reporter, log)
	syncService := usecase.NewSyncService(
		repos.Registrations,
		repos.Platforms,
		repos.Corporations,
		repos.Residences,
		repos.Reactions,
		repos.Users,
		registry,
		repos.Tx,
		notifier,
		reporter,
		log,
	)

	jobLock := redisrepo.NewJobLock(redisClient.Client(), cfg.Redis.JobLockPrefix)
	sched := scheduler.New(repos.Schedules, jobLock, m, cfg.Scheduler, log)

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Database: pool,
		Cache:    redisClient,
	})

	return &Application{
		cfg:       cfg,
		engine:    engine,
		logger:    log,
		pool:      pool,
		redis:     redisClient,
		producer:  producer,
		reporter:  reporter,
		scheduler: sched,
		ingest:    ingestService,
		sync:      syncService,
	}, nil
}

// Run registers the recurring jobs and serves until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if r, ok := a.reporter.(*sentryinfra.Reporter); ok {
			r.Flush(2 * time.Second)
		}
	}()

	if err := a.scheduler.Register(ctx, scheduler.Job{
		Name: jobScrapeResidences,
		Cron: a.cfg.Scheduler.ResidencesCron,
		Run:  a.ingest.Run,
	}); err != nil {
		return err
	}
	if err := a.scheduler.Register(ctx, scheduler.Job{
		Name: jobScrapeReactions,
		Cron: a.cfg.Scheduler.ReactionsCron,
		Run:  a.sync.Run,
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting worker",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	schedulerErrCh := make(chan error, 1)
	go func() {
		schedulerErrCh <- a.scheduler.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		<-schedulerErrCh
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-schedulerErrCh:
		if err != nil {
			return fmt.Errorf("run scheduler: %w", err)
		}
		return nil
	}
}
