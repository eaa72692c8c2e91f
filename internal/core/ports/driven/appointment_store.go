package driven

import (
	"context"
	"time"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

// AppointmentStore persists appointments and the sync markers on them.
type AppointmentStore interface {
	// Save creates or updates an appointment.
	Save(ctx context.Context, appt domain.Appointment) error

	// Get retrieves an appointment by id. Returns nil if absent.
	Get(ctx context.Context, id string) (*domain.Appointment, error)

	// ListUnsynced returns pending appointments starting after now and
	// before the horizon that have no remote event id yet, ordered by start
	// time. This predicate is the sync job's idempotency gate.
	ListUnsynced(ctx context.Context, horizon time.Time) ([]domain.Appointment, error)

	// ListForDay returns pending appointments whose start falls on the
	// given calendar day, ordered by start time.
	ListForDay(ctx context.Context, day time.Time) ([]domain.Appointment, error)

	// SetRemoteEvent records the created calendar event on an appointment.
	// Only the sync job writes this marker.
	SetRemoteEvent(ctx context.Context, id, eventID, calendarID string) error
}
