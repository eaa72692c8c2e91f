package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driving"
	"github.com/onboardhq/syncgate/internal/logging"
)

// Job is a unit of scheduled work. Jobs report their outcome through the
// run summary and never return errors: a job failure is a logged summary
// with a non-zero error count, not a scheduler failure.
type Job interface {
	ID() string
	Name() string
	Run(ctx context.Context) domain.RunSummary
}

// RunRecorder receives the summary of every completed job run.
// Implementations must be safe for concurrent use.
type RunRecorder interface {
	RecordRun(summary domain.RunSummary)
}

var _ driving.JobRunner = (*Scheduler)(nil)

// Scheduler drives the registered jobs on cron schedules in a fixed
// timezone. Job panics are contained at the run boundary so a single bad
// tick cannot take the process down.
type Scheduler struct {
	cron     *cron.Cron
	recorder RunRecorder
	logger   *slog.Logger

	// wg tracks manually triggered runs, which live outside the cron
	// runner and so outside cron.Stop's drain context.
	wg sync.WaitGroup

	mu      sync.Mutex
	jobs    []*scheduledJob
	running bool
	stopped bool
}

type scheduledJob struct {
	job     Job
	spec    string
	entryID cron.EntryID

	mu      sync.Mutex
	lastRun time.Time
}

// NewScheduler creates a scheduler evaluating cron specs in the given
// location. The recorder may be nil.
func NewScheduler(location *time.Location, recorder RunRecorder, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		recorder: recorder,
		logger:   logger,
	}
}

// Register adds a job under the given cron spec. Must be called before
// Start.
func (s *Scheduler) Register(job Job, spec string) error {
	sj := &scheduledJob{job: job, spec: spec}
	entryID, err := s.cron.AddFunc(spec, func() {
		s.execute(context.Background(), sj)
	})
	if err != nil {
		return err
	}
	sj.entryID = entryID

	s.mu.Lock()
	s.jobs = append(s.jobs, sj)
	s.mu.Unlock()
	return nil
}

// Start begins scheduling. Safe to call once.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Shutdown stops scheduling new runs and waits for in-flight runs to
// drain, up to the caller's deadline. An in-flight run is never cancelled;
// it is left to finish so its marker writes complete.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	done := s.cron.Stop()

	manual := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(manual)
	}()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler shutdown deadline exceeded with runs in flight")
		return ctx.Err()
	}
	select {
	case <-manual:
	case <-ctx.Done():
		s.logger.Warn("scheduler shutdown deadline exceeded with runs in flight")
		return ctx.Err()
	}

	s.logger.Info("scheduler stopped")
	return nil
}

// Running reports whether the scheduler is accepting ticks.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Descriptors returns the registered jobs with their schedule state.
func (s *Scheduler) Descriptors() []domain.JobDescriptor {
	s.mu.Lock()
	jobs := make([]*scheduledJob, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	out := make([]domain.JobDescriptor, 0, len(jobs))
	for _, sj := range jobs {
		sj.mu.Lock()
		lastRun := sj.lastRun
		sj.mu.Unlock()

		out = append(out, domain.JobDescriptor{
			ID:      sj.job.ID(),
			Name:    sj.job.Name(),
			Spec:    sj.spec,
			LastRun: lastRun,
			NextRun: s.cron.Entry(sj.entryID).Next,
		})
	}
	return out
}

// RunNow triggers a job outside its schedule. Returns false for an
// unknown id or after Shutdown has begun. The run happens on its own
// goroutine; callers poll the descriptors for the outcome. Shutdown
// waits for runs started here the same as for scheduled ones.
func (s *Scheduler) RunNow(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	for _, sj := range s.jobs {
		if sj.job.ID() == id {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.execute(context.Background(), sj)
			}()
			return true
		}
	}
	return false
}

// execute runs one job tick. Panics stop here.
func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked",
				logging.KeyJob, sj.job.ID(), "panic", r)
		}
	}()

	sj.mu.Lock()
	sj.lastRun = time.Now()
	sj.mu.Unlock()

	s.logger.Debug("job starting", logging.KeyJob, sj.job.ID())
	summary := sj.job.Run(ctx)
	if s.recorder != nil {
		s.recorder.RecordRun(summary)
	}
}
