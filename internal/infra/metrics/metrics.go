package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "woningzoeker"

// Metrics groups the Prometheus collectors of the scraping pipeline.
type Metrics struct {
	JobDuration            *prometheus.HistogramVec
	JobRuns                *prometheus.CounterVec
	UnitFailures           *prometheus.CounterVec
	ResidencesIngested     prometheus.Counter
	ReactionsNewlyRanked   prometheus.Counter
	NotificationsPublished *prometheus.CounterVec
}

// New registers the pipeline collectors with the default registerer.
func New() *Metrics {
	return &Metrics{
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job invocations in seconds.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800},
		}, []string{"job"}),
		JobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job invocations partitioned by job and outcome.",
		}, []string{"job", "outcome"}),
		UnitFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_failures_total",
			Help:      "Failed units of work (scraper runs or registration syncs) per job.",
		}, []string{"job"}),
		ResidencesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "residences_ingested_total",
			Help:      "Newly persisted residences across all platforms.",
		}),
		ReactionsNewlyRanked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_newly_ranked_total",
			Help:      "Reactions whose rank became known for the first time.",
		}),
		NotificationsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Notification events handed to the delivery collaborator.",
		}, []string{"event_type"}),
	}
}
