package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
	"github.com/onboardhq/syncgate/internal/core/ports/driving"
	"github.com/onboardhq/syncgate/internal/logging"
)

// remoteCalendarID is the calendar appointments are mirrored into.
const remoteCalendarID = "primary"

// DefaultSyncHorizon bounds how far ahead the sync job looks.
const DefaultSyncHorizon = 30 * 24 * time.Hour

// SyncService is the calendar synchronization job body. Each run walks the
// pending appointments inside the forward horizon that have no remote event
// yet, creates one per appointment through the owner's session, and records
// the remote id. That marker is what keeps re-runs from duplicating events.
//
// Items are processed one at a time to bound load on the Google APIs and
// keep per-user refreshes uncontended. Per-item failures are counted and
// logged, never raised past the job boundary.
type SyncService struct {
	sessions     driving.SessionProvider
	appointments driven.AppointmentStore
	directory    driven.Directory
	calendar     driven.CalendarGateway
	mail         driven.MailGateway
	horizon      time.Duration
	location     *time.Location
	logger       *slog.Logger
}

// NewSyncService creates the sync job.
func NewSyncService(
	sessions driving.SessionProvider,
	appointments driven.AppointmentStore,
	directory driven.Directory,
	calendar driven.CalendarGateway,
	mail driven.MailGateway,
	location *time.Location,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		sessions:     sessions,
		appointments: appointments,
		directory:    directory,
		calendar:     calendar,
		mail:         mail,
		horizon:      DefaultSyncHorizon,
		location:     location,
		logger:       logger,
	}
}

// WithHorizon overrides the forward sync window. Non-positive values keep
// the default.
func (s *SyncService) WithHorizon(h time.Duration) *SyncService {
	if h > 0 {
		s.horizon = h
	}
	return s
}

// ID returns the job identifier.
func (s *SyncService) ID() string { return domain.JobIDCalendarSync }

// Name returns the human-readable job name.
func (s *SyncService) Name() string { return "Calendar Synchronization" }

// Run executes one synchronization pass.
func (s *SyncService) Run(ctx context.Context) domain.RunSummary {
	summary := domain.RunSummary{JobID: s.ID(), StartedAt: time.Now()}
	log := s.logger.With(logging.KeyJob, s.ID())

	appts, err := s.appointments.ListUnsynced(ctx, time.Now().Add(s.horizon))
	if err != nil {
		log.Error("listing unsynced appointments failed", logging.KeyError, err)
		summary.EndedAt = time.Now()
		return summary
	}

	log.Debug("appointments selected for sync", "count", len(appts))

	for i := range appts {
		s.syncOne(ctx, log, &appts[i], &summary)
	}

	summary.EndedAt = time.Now()
	log.Info("sync run finished",
		logging.KeySynced, summary.Synced,
		logging.KeySkipped, summary.Skipped,
		logging.KeyErrors, summary.Errors,
		logging.KeyDuration, summary.EndedAt.Sub(summary.StartedAt))
	return summary
}

// syncOne mirrors a single appointment. Never returns an error: outcomes
// land in the summary.
func (s *SyncService) syncOne(ctx context.Context, log *slog.Logger, appt *domain.Appointment, summary *domain.RunSummary) {
	session, err := s.sessions.Session(ctx, appt.OwnerID)
	if err != nil {
		log.Error("obtaining session failed",
			logging.KeyUser, appt.OwnerID, logging.KeyAppointment, appt.ID, logging.KeyError, err)
		summary.Errors++
		return
	}
	if session == nil {
		// Owner never connected or refresh failed. Expected, not an error.
		log.Debug("owner has no usable session, skipping",
			logging.KeyUser, appt.OwnerID, logging.KeyAppointment, appt.ID)
		summary.Skipped++
		return
	}

	client, err := s.directory.GetClient(ctx, appt.ClientID)
	if err != nil || client == nil {
		log.Error("client lookup failed",
			logging.KeyAppointment, appt.ID, logging.KeyError, err)
		summary.Errors++
		return
	}

	eventID, err := s.calendar.CreateEvent(ctx, session.AccessToken, buildEvent(appt, client))
	if err != nil {
		// Left unmarked so the next tick retries.
		log.Error("creating calendar event failed",
			logging.KeyAppointment, appt.ID, logging.KeyError, err)
		summary.Errors++
		return
	}

	if err := s.appointments.SetRemoteEvent(ctx, appt.ID, eventID, remoteCalendarID); err != nil {
		// The remote event exists but the marker write failed; the next
		// tick will create a duplicate. Loud log so operators can clean up.
		log.Error("recording remote event failed, duplicate possible on retry",
			logging.KeyAppointment, appt.ID, logging.KeyEvent, eventID, logging.KeyError, err)
		summary.Errors++
		return
	}

	log.Info("appointment synced",
		logging.KeyAppointment, appt.ID, logging.KeyEvent, eventID)
	summary.Synced++

	// Confirmation email is best effort: the event id is already recorded,
	// so a mail failure never fails the item.
	if client.ContactEmail != "" {
		if err := s.mail.Send(ctx, session.AccessToken, s.confirmationEmail(appt, client)); err != nil {
			log.Warn("confirmation email failed",
				logging.KeyAppointment, appt.ID, logging.KeyError, err)
		}
	}
}

// PropagateUpdate pushes the appointment's current details onto its
// existing remote event. Appointments that never synced are left alone;
// the next sync run creates their event from current data anyway.
func (s *SyncService) PropagateUpdate(ctx context.Context, appointmentID string) error {
	appt, session, client, err := s.resolveSynced(ctx, appointmentID)
	if err != nil || appt == nil {
		return err
	}

	ev := buildEvent(appt, client)
	if err := s.calendar.UpdateEvent(ctx, session.AccessToken, appt.RemoteCalendarID, appt.RemoteEventID, ev); err != nil {
		return err
	}
	s.logger.Info("remote event updated",
		logging.KeyAppointment, appt.ID, logging.KeyEvent, appt.RemoteEventID)
	return nil
}

// PropagateCancellation deletes the remote event of a cancelled
// appointment. No-op for appointments that never synced.
func (s *SyncService) PropagateCancellation(ctx context.Context, appointmentID string) error {
	appt, session, _, err := s.resolveSynced(ctx, appointmentID)
	if err != nil || appt == nil {
		return err
	}

	if err := s.calendar.CancelEvent(ctx, session.AccessToken, appt.RemoteCalendarID, appt.RemoteEventID); err != nil {
		return err
	}
	s.logger.Info("remote event cancelled",
		logging.KeyAppointment, appt.ID, logging.KeyEvent, appt.RemoteEventID)
	return nil
}

// resolveSynced loads an appointment plus the session and client needed to
// touch its remote event. Returns a nil appointment without error when
// there is no remote event to act on.
func (s *SyncService) resolveSynced(ctx context.Context, appointmentID string) (*domain.Appointment, *domain.Session, *domain.Client, error) {
	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	if appt == nil {
		return nil, nil, nil, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
	}
	if !appt.IsSynced() {
		return nil, nil, nil, nil
	}

	session, err := s.sessions.Session(ctx, appt.OwnerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if session == nil {
		return nil, nil, nil, fmt.Errorf("%w: owner %s has no usable google session", domain.ErrNotConfigured, appt.OwnerID)
	}

	client, err := s.directory.GetClient(ctx, appt.ClientID)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		return nil, nil, nil, fmt.Errorf("client %s: %w", appt.ClientID, domain.ErrNotFound)
	}
	return appt, session, client, nil
}

// buildEvent maps an appointment onto a one-hour calendar event with the
// client's contact invited.
func buildEvent(appt *domain.Appointment, client *domain.Client) domain.CalendarEvent {
	return domain.CalendarEvent{
		Title:         appt.Title,
		Description:   buildEventDescription(appt, client),
		Location:      appt.Location,
		Start:         appt.ScheduledAt,
		End:           appt.ScheduledAt.Add(time.Hour),
		AttendeeEmail: client.ContactEmail,
	}
}

func buildEventDescription(appt *domain.Appointment, client *domain.Client) string {
	var parts []string
	if appt.Description != "" {
		parts = append(parts, appt.Description)
	}
	parts = append(parts, "Client: "+client.Name)
	if appt.Kind != "" {
		parts = append(parts, "Type: "+appt.Kind)
	}
	if appt.Location != "" {
		parts = append(parts, "Location: "+appt.Location)
	}
	if appt.Notes != "" {
		parts = append(parts, "Notes: "+appt.Notes)
	}
	return strings.Join(parts, "\n")
}

func (s *SyncService) confirmationEmail(appt *domain.Appointment, client *domain.Client) domain.OutboundEmail {
	when := appt.ScheduledAt.In(s.location).Format("02/01/2006 at 15:04")
	location := appt.Location
	if location == "" {
		location = "to be confirmed"
	}

	body := fmt.Sprintf(`<html><body>
<h2>Appointment Confirmed</h2>
<p>Hello <strong>%s</strong>,</p>
<p>Your appointment has been confirmed:</p>
<ul>
<li><strong>Title:</strong> %s</li>
<li><strong>Date/Time:</strong> %s</li>
<li><strong>Location:</strong> %s</li>
</ul>
<p>If you have any questions, please contact us.</p>
</body></html>`, client.Name, appt.Title, when, location)

	return domain.OutboundEmail{
		To:       client.ContactEmail,
		Subject:  "Appointment confirmed - " + appt.Title,
		HTMLBody: body,
	}
}
