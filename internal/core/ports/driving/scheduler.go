package driving

import (
	"context"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

// JobRunner exposes scheduler control to the administrative surface.
type JobRunner interface {
	// Running reports whether the scheduler is started.
	Running() bool

	// Descriptors lists the registered jobs with their next and last runs.
	Descriptors() []domain.JobDescriptor

	// RunNow triggers an out-of-band execution of a job, reusing the same
	// job body as the scheduled ticks. Returns false if the id is unknown.
	RunNow(id string) bool

	// Shutdown disables future ticks and waits for the in-flight run to
	// finish, or until ctx expires.
	Shutdown(ctx context.Context) error
}
