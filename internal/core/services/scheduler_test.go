package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

type stubJob struct {
	id    string
	name  string
	delay time.Duration

	mu       sync.Mutex
	runs     int
	finished int
	panics   bool
}

func (j *stubJob) ID() string   { return j.id }
func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(_ context.Context) domain.RunSummary {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	if j.delay > 0 {
		time.Sleep(j.delay)
	}
	if j.panics {
		panic("job blew up")
	}
	j.mu.Lock()
	j.finished++
	j.mu.Unlock()
	return domain.RunSummary{
		JobID:     j.id,
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
		Synced:    1,
	}
}

func (j *stubJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func (j *stubJob) finishedCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finished
}

type recordingRecorder struct {
	mu        sync.Mutex
	summaries []domain.RunSummary
}

func (r *recordingRecorder) RecordRun(summary domain.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
}

func (r *recordingRecorder) recorded() []domain.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RunSummary(nil), r.summaries...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestScheduler_RegisterAndDescriptors(t *testing.T) {
	s := NewScheduler(time.UTC, nil, discardLogger())
	job := &stubJob{id: "calendar-sync", name: "Calendar Synchronization"}
	require.NoError(t, s.Register(job, "0 * * * *"))

	descriptors := s.Descriptors()
	require.Len(t, descriptors, 1)
	assert.Equal(t, "calendar-sync", descriptors[0].ID)
	assert.Equal(t, "Calendar Synchronization", descriptors[0].Name)
	assert.Equal(t, "0 * * * *", descriptors[0].Spec)
	assert.True(t, descriptors[0].LastRun.IsZero())
}

func TestScheduler_Register_BadSpec(t *testing.T) {
	s := NewScheduler(time.UTC, nil, discardLogger())
	err := s.Register(&stubJob{id: "j"}, "not a cron spec")
	require.Error(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	recorder := &recordingRecorder{}
	s := NewScheduler(time.UTC, recorder, discardLogger())
	job := &stubJob{id: "calendar-sync"}
	require.NoError(t, s.Register(job, "0 * * * *"))

	assert.False(t, s.RunNow("unknown-job"))

	require.True(t, s.RunNow("calendar-sync"))
	waitFor(t, func() bool { return job.runCount() == 1 })

	waitFor(t, func() bool { return len(recorder.recorded()) == 1 })
	summaries := recorder.recorded()
	assert.Equal(t, "calendar-sync", summaries[0].JobID)
	assert.Equal(t, 1, summaries[0].Synced)

	descriptors := s.Descriptors()
	require.Len(t, descriptors, 1)
	assert.False(t, descriptors[0].LastRun.IsZero())
}

func TestScheduler_ShutdownDrainsRunNow(t *testing.T) {
	s := NewScheduler(time.UTC, nil, discardLogger())
	job := &stubJob{id: "calendar-sync", delay: 300 * time.Millisecond}
	require.NoError(t, s.Register(job, "0 * * * *"))
	s.Start()

	require.True(t, s.RunNow("calendar-sync"))
	waitFor(t, func() bool { return job.runCount() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	// Shutdown must have waited for the manually triggered run, not just
	// the cron-launched ones.
	assert.Equal(t, 1, job.finishedCount())

	assert.False(t, s.RunNow("calendar-sync"), "no new runs after shutdown")
	assert.Equal(t, 1, job.runCount())
}

func TestScheduler_PanicContained(t *testing.T) {
	s := NewScheduler(time.UTC, nil, discardLogger())
	job := &stubJob{id: "boom", panics: true}
	require.NoError(t, s.Register(job, "0 * * * *"))

	require.True(t, s.RunNow("boom"))
	waitFor(t, func() bool { return job.runCount() == 1 })
	// Reaching here means the panic did not escape the job goroutine's
	// recover and take the test process down.
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(time.UTC, nil, discardLogger())
	require.NoError(t, s.Register(&stubJob{id: "j"}, "0 * * * *"))

	assert.False(t, s.Running())
	s.Start()
	assert.True(t, s.Running())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.False(t, s.Running())
}

func TestScheduler_NextRunScheduled(t *testing.T) {
	s := NewScheduler(time.UTC, nil, discardLogger())
	require.NoError(t, s.Register(&stubJob{id: "j"}, "* * * * *"))

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	descriptors := s.Descriptors()
	require.Len(t, descriptors, 1)
	assert.False(t, descriptors[0].NextRun.IsZero())
	assert.True(t, descriptors[0].NextRun.After(time.Now().Add(-time.Second)))
}
