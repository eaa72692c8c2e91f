package domain

import "time"

// Appointment statuses.
const (
	AppointmentPending   = "pending"
	AppointmentDone      = "done"
	AppointmentCancelled = "cancelled"
)

// Appointment is a scheduled client visit or meeting.
// RemoteEventID is the idempotency marker for calendar synchronization: it is
// set exactly when a Google Calendar event exists for this appointment, and
// its presence excludes the appointment from future sync runs.
type Appointment struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	// OwnerID is the user responsible for the appointment. Sync happens
	// through this user's Google connection.
	OwnerID string `json:"owner_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`

	// ScheduledAt is the start of the appointment.
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`

	// RemoteEventID is the Google Calendar event id, empty until synced.
	RemoteEventID string `json:"remote_event_id,omitempty"`
	// RemoteCalendarID is the calendar the event was created in.
	RemoteCalendarID string `json:"remote_calendar_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSynced returns true if a remote calendar event exists for this appointment.
func (a *Appointment) IsSynced() bool {
	return a.RemoteEventID != ""
}

// User is an internal account that may hold a Google connection.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	// GoogleConnected is a denormalized flag kept in lockstep with the
	// existence of the user's Connection record.
	GoogleConnected bool `json:"google_connected"`
}

// Client is a customer being onboarded.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// ContactEmail is the primary contact, invited to calendar events and
	// notified by email when an appointment is confirmed.
	ContactEmail string `json:"contact_email,omitempty"`
}

// CalendarEvent is the provider-agnostic shape of an event to create.
type CalendarEvent struct {
	Title         string
	Description   string
	Location      string
	Start         time.Time
	End           time.Time
	AttendeeEmail string
}

// OutboundEmail is a message sent through the user's own mail grant.
type OutboundEmail struct {
	To       string
	Subject  string
	HTMLBody string
}
