package domain

import "time"

// Job IDs for built-in jobs.
const (
	JobIDCalendarSync  = "calendar-sync"
	JobIDDailyReminder = "daily-reminder"
)

// JobDescriptor describes a registered recurring job.
// Descriptors live for the scheduler's lifetime only; they are not persisted.
type JobDescriptor struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`

	// Name is a human-readable name for the job.
	Name string `json:"name"`

	// Spec is the cron expression the job runs on.
	Spec string `json:"spec"`

	// LastRun is when the job last started. Zero if it has not run yet.
	LastRun time.Time `json:"last_run,omitzero"`

	// NextRun is when the scheduler will fire the job next.
	NextRun time.Time `json:"next_run,omitzero"`
}

// RunSummary is the outcome of one job execution.
// Job bodies swallow per-item failures; the summary is the only thing that
// crosses the job boundary.
type RunSummary struct {
	// JobID identifies which job ran.
	JobID string `json:"job_id"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the run completed.
	EndedAt time.Time `json:"ended_at"`

	// Synced counts items whose side effect completed and was recorded.
	Synced int `json:"synced"`

	// Skipped counts items whose owner had no usable session.
	// Skips are expected outcomes, never errors.
	Skipped int `json:"skipped"`

	// Errors counts items that failed and will be retried next run.
	Errors int `json:"errors"`
}
