// Package scheduler runs the durable recurring jobs. A small fixed worker
// pool polls the schedule store for due entries and executes each job
// invocation to completion; the ingestion and synchronization jobs may run
// concurrently with each other but a single job never runs twice at once
// thanks to the per-job Redis lock.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/domain"
	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/config"
	"github.com/DanielHuisman/woningzoeker-backend/internal/infra/metrics"
	"github.com/DanielHuisman/woningzoeker-backend/internal/usecase"
)

const (
	defaultWorkers      = 2
	defaultPollInterval = 30 * time.Second
	defaultJobTimeout   = 30 * time.Minute
	defaultLockTTL      = 45 * time.Minute
)

// Job couples a stable job name and cron expression with the function that
// runs one invocation. The function returns a report and never an error:
// unit failures are already isolated inside the job.
type Job struct {
	Name string
	Cron string
	Run  func(ctx context.Context) usecase.RunReport
}

// Scheduler owns the worker pool and the registered jobs.
type Scheduler struct {
	store   port.ScheduleStore
	locks   port.JobLocker
	metrics *metrics.Metrics
	logger  *zap.Logger

	workers      int
	pollInterval time.Duration
	jobTimeout   time.Duration
	lockTTL      time.Duration

	mu   sync.RWMutex
	jobs map[string]Job

	now func() time.Time
}

// New constructs a scheduler around the given schedule store and lock.
func New(store port.ScheduleStore, locks port.JobLocker, m *metrics.Metrics, cfg config.SchedulerSettings, logger *zap.Logger) *Scheduler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	return &Scheduler{
		store:        store,
		locks:        locks,
		metrics:      m,
		logger:       logger,
		workers:      workers,
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
		lockTTL:      lockTTL,
		jobs:         make(map[string]Job),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register ensures the job's durable schedule exists and remembers its
// handler. Registering an already scheduled job is a no-op on the store.
func (s *Scheduler) Register(ctx context.Context, job Job) error {
	next, err := nextRun(job.Cron, s.now())
	if err != nil {
		return fmt.Errorf("parse cron for job %q: %w", job.Name, err)
	}

	if err := s.store.EnsureScheduled(ctx, domain.Schedule{
		Name:      job.Name,
		CronExpr:  job.Cron,
		NextRunAt: next,
		CreatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("ensure schedule %q: %w", job.Name, err)
	}

	s.mu.Lock()
	s.jobs[job.Name] = job
	s.mu.Unlock()

	s.logger.Info("job scheduled",
		zap.String("job", job.Name),
		zap.String("cron", job.Cron),
		zap.Time("next_run", next),
	)
	return nil
}

// Run polls for due schedules and dispatches them to the worker pool until
// the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	due := make(chan domain.Schedule)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for schedule := range due {
				s.runJob(ctx, schedule)
			}
		}()
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		zap.Int("workers", s.workers),
		zap.Duration("poll_interval", s.pollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			close(due)
			wg.Wait()
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.dispatchDue(ctx, due)
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context, due chan<- domain.Schedule) {
	schedules, err := s.store.Due(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to fetch due schedules", zap.Error(err))
		return
	}

	for _, schedule := range schedules {
		s.mu.RLock()
		_, known := s.jobs[schedule.Name]
		s.mu.RUnlock()
		if !known {
			s.logger.Warn("due schedule has no registered job", zap.String("job", schedule.Name))
			continue
		}

		select {
		case due <- schedule:
		case <-ctx.Done():
			return
		default:
			// All workers busy; the schedule stays due and is picked up
			// on a later poll.
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, schedule domain.Schedule) {
	s.mu.RLock()
	job, ok := s.jobs[schedule.Name]
	s.mu.RUnlock()
	if !ok {
		return
	}

	acquired, err := s.locks.Acquire(ctx, schedule.Name, s.lockTTL)
	if err != nil {
		s.logger.Error("failed to acquire job lock",
			zap.String("job", schedule.Name),
			zap.Error(err),
		)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.locks.Release(ctx, schedule.Name); err != nil {
			s.logger.Warn("failed to release job lock",
				zap.String("job", schedule.Name),
				zap.Error(err),
			)
		}
	}()

	ranAt := s.now()
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	s.logger.Info("job started", zap.String("job", job.Name))
	report := job.Run(jobCtx)
	duration := s.now().Sub(ranAt)

	s.observe(job.Name, report, duration)

	next, err := nextRun(schedule.CronExpr, ranAt)
	if err != nil {
		s.logger.Error("failed to compute next run",
			zap.String("job", job.Name),
			zap.Error(err),
		)
		return
	}
	if err := s.store.Complete(ctx, schedule.Name, ranAt, next); err != nil {
		s.logger.Error("failed to complete schedule",
			zap.String("job", job.Name),
			zap.Error(err),
		)
	}
}

func (s *Scheduler) observe(name string, report usecase.RunReport, duration time.Duration) {
	outcome := "ok"
	if report.Failed() > 0 {
		outcome = "partial_failure"
	}

	if s.metrics != nil {
		s.metrics.JobDuration.WithLabelValues(name).Observe(duration.Seconds())
		s.metrics.JobRuns.WithLabelValues(name, outcome).Inc()
		s.metrics.UnitFailures.WithLabelValues(name).Add(float64(report.Failed()))
		for _, result := range report.Results {
			s.metrics.ResidencesIngested.Add(float64(result.NewResidences))
			s.metrics.ReactionsNewlyRanked.Add(float64(result.NewlyRanked))
		}
	}

	s.logger.Info("job finished",
		zap.String("job", name),
		zap.String("outcome", outcome),
		zap.Duration("duration", duration),
		zap.Int("units", len(report.Results)),
		zap.Int("failed_units", report.Failed()),
	)
}

func nextRun(expr string, after time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(after), nil
}
