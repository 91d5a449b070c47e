// Package metrics exposes prometheus instrumentation for the sync
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BenAffleck/ledger-live-common/internal/countervalue"
)

// SyncMetrics counts synchronization activity. It implements
// countervalue.MetricsRecorder.
type SyncMetrics struct {
	PassesTotal        prometheus.Counter
	PassDuration       prometheus.Histogram
	JobsTotal          prometheus.Counter
	PairsChangedTotal  prometheus.Counter
	FetchesTotal       *prometheus.CounterVec
	BackoffSkipsTotal  *prometheus.CounterVec
	LatestUpdatesTotal prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the default registry.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{
		PassesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "countervalues_sync_passes_total",
			Help: "Number of completed synchronization passes",
		}),
		PassDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "countervalues_sync_pass_duration_seconds",
			Help:    "Duration of synchronization passes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		JobsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "countervalues_sync_jobs_total",
			Help: "Number of historical fetch jobs scheduled",
		}),
		PairsChangedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "countervalues_sync_pairs_changed_total",
			Help: "Number of pairs whose rate data changed during a pass",
		}),
		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "countervalues_fetches_total",
			Help: "Historical fetch outcomes by granularity",
		}, []string{"granularity", "outcome"}),
		BackoffSkipsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "countervalues_backoff_skips_total",
			Help: "Fetch windows skipped due to failure backoff",
		}, []string{"granularity"}),
		LatestUpdatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "countervalues_latest_updates_total",
			Help: "Pairs whose latest spot rate changed",
		}),
	}
}

// RecordPass records one completed pass.
func (m *SyncMetrics) RecordPass(duration time.Duration, jobs, changed int) {
	m.PassesTotal.Inc()
	m.PassDuration.Observe(duration.Seconds())
	m.JobsTotal.Add(float64(jobs))
	m.PairsChangedTotal.Add(float64(changed))
}

// RecordFetch records one historical fetch outcome.
func (m *SyncMetrics) RecordFetch(g countervalue.Granularity, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.FetchesTotal.WithLabelValues(string(g), outcome).Inc()
}

// RecordBackoffSkip records a window skipped while backing off.
func (m *SyncMetrics) RecordBackoffSkip(g countervalue.Granularity) {
	m.BackoffSkipsTotal.WithLabelValues(string(g)).Inc()
}

// RecordLatestUpdates records how many latest rates changed in a pass.
func (m *SyncMetrics) RecordLatestUpdates(n int) {
	m.LatestUpdatesTotal.Add(float64(n))
}
