// Package instrumentation exposes Prometheus collectors for the scheduled
// jobs and an adapter feeding them from job run summaries.
package instrumentation

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncgate_job_runs_total",
		Help: "Completed job runs, partitioned by job and whether errors occurred.",
	}, []string{"job", "had_errors"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syncgate_job_duration_seconds",
		Help:    "Wall-clock duration of job runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"job"})

	syncItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncgate_job_items_total",
		Help: "Per-item outcomes across job runs.",
	}, []string{"job", "outcome"})
)

// Recorder feeds job run summaries into the Prometheus collectors.
// The zero value is ready to use.
type Recorder struct{}

// NewRecorder creates a run recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// RecordRun records one completed job run.
func (r *Recorder) RecordRun(summary domain.RunSummary) {
	jobRuns.WithLabelValues(summary.JobID, strconv.FormatBool(summary.Errors > 0)).Inc()
	jobDuration.WithLabelValues(summary.JobID).
		Observe(summary.EndedAt.Sub(summary.StartedAt).Seconds())

	syncItems.WithLabelValues(summary.JobID, "synced").Add(float64(summary.Synced))
	syncItems.WithLabelValues(summary.JobID, "skipped").Add(float64(summary.Skipped))
	syncItems.WithLabelValues(summary.JobID, "errors").Add(float64(summary.Errors))
}
