// Package sentry implements the error-reporting collaborator. Every caught
// unit failure ends up here with enough tags to identify the failing
// scraper or registration.
package sentry

import (
	"context"
	"fmt"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/DanielHuisman/woningzoeker-backend/internal/core/port"
)

// Reporter forwards errors to Sentry. Reporting must never fail the caller,
// so capture problems are swallowed after logging.
type Reporter struct {
	hub    *sentrygo.Hub
	logger *zap.Logger
}

// New initializes the Sentry client and returns a reporter bound to it.
func New(dsn, environment, release string, logger *zap.Logger) (*Reporter, error) {
	client, err := sentrygo.NewClient(sentrygo.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry client: %w", err)
	}

	hub := sentrygo.NewHub(client, sentrygo.NewScope())
	return &Reporter{hub: hub, logger: logger}, nil
}

// Report captures the error with the given tags.
func (r *Reporter) Report(_ context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}

	r.hub.WithScope(func(scope *sentrygo.Scope) {
		scope.SetTags(tags)
		if id := r.hub.CaptureException(err); id == nil {
			r.logger.Warn("sentry dropped error report", zap.Error(err))
		}
	})
}

// Flush waits for buffered events to be sent, bounded by the timeout.
func (r *Reporter) Flush(timeout time.Duration) {
	r.hub.Flush(timeout)
}

// LogReporter reports errors to the log only. Used when no Sentry DSN is
// configured.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter constructs a log-only reporter.
func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs the error with its tags.
func (r *LogReporter) Report(_ context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}

	fields := make([]zap.Field, 0, len(tags)+1)
	fields = append(fields, zap.Error(err))
	for key, value := range tags {
		fields = append(fields, zap.String(key, value))
	}
	r.logger.Error("reported error", fields...)
}

var (
	_ port.ErrorReporter = (*Reporter)(nil)
	_ port.ErrorReporter = (*LogReporter)(nil)
)
