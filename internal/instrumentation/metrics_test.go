package instrumentation

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

func TestRecorder_RecordRun(t *testing.T) {
	r := NewRecorder()

	start := time.Now()
	r.RecordRun(domain.RunSummary{
		JobID:     "metrics-test-job",
		StartedAt: start,
		EndedAt:   start.Add(2 * time.Second),
		Synced:    3,
		Skipped:   1,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("metrics-test-job", "false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(syncItems.WithLabelValues("metrics-test-job", "synced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(syncItems.WithLabelValues("metrics-test-job", "skipped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(syncItems.WithLabelValues("metrics-test-job", "errors")))

	r.RecordRun(domain.RunSummary{
		JobID:     "metrics-test-job",
		StartedAt: start,
		EndedAt:   start.Add(time.Second),
		Errors:    2,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("metrics-test-job", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(syncItems.WithLabelValues("metrics-test-job", "errors")))
}
