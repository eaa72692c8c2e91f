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

// RemindService is the daily reminder sweep. Each run collects today's
// pending appointments, groups them per owning user, and sends each user a
// summary email through their own Gmail grant. Users without a usable
// session are skipped, same as in the sync job.
type RemindService struct {
	sessions     driving.SessionProvider
	appointments driven.AppointmentStore
	directory    driven.Directory
	mail         driven.MailGateway
	location     *time.Location
	logger       *slog.Logger
}

// NewRemindService creates the reminder job.
func NewRemindService(
	sessions driving.SessionProvider,
	appointments driven.AppointmentStore,
	directory driven.Directory,
	mail driven.MailGateway,
	location *time.Location,
	logger *slog.Logger,
) *RemindService {
	return &RemindService{
		sessions:     sessions,
		appointments: appointments,
		directory:    directory,
		mail:         mail,
		location:     location,
		logger:       logger,
	}
}

// ID returns the job identifier.
func (s *RemindService) ID() string { return domain.JobIDDailyReminder }

// Name returns the human-readable job name.
func (s *RemindService) Name() string { return "Daily Reminder Sweep" }

// Run executes one reminder sweep.
func (s *RemindService) Run(ctx context.Context) domain.RunSummary {
	summary := domain.RunSummary{JobID: s.ID(), StartedAt: time.Now()}
	log := s.logger.With(logging.KeyJob, s.ID())

	now := time.Now().In(s.location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)

	appts, err := s.appointments.ListForDay(ctx, dayStart)
	if err != nil {
		log.Error("listing today's appointments failed", logging.KeyError, err)
		summary.EndedAt = time.Now()
		return summary
	}
	if len(appts) == 0 {
		log.Debug("no appointments today")
		summary.EndedAt = time.Now()
		return summary
	}

	// Group per owner, keeping first-seen order stable.
	byOwner := make(map[string][]domain.Appointment)
	var owners []string
	for _, appt := range appts {
		if _, seen := byOwner[appt.OwnerID]; !seen {
			owners = append(owners, appt.OwnerID)
		}
		byOwner[appt.OwnerID] = append(byOwner[appt.OwnerID], appt)
	}

	for _, ownerID := range owners {
		s.remindOne(ctx, log, ownerID, byOwner[ownerID], &summary)
	}

	summary.EndedAt = time.Now()
	log.Info("reminder run finished",
		logging.KeySynced, summary.Synced,
		logging.KeySkipped, summary.Skipped,
		logging.KeyErrors, summary.Errors,
		logging.KeyDuration, summary.EndedAt.Sub(summary.StartedAt))
	return summary
}

// remindOne sends one user their appointments for the day.
func (s *RemindService) remindOne(ctx context.Context, log *slog.Logger, ownerID string, appts []domain.Appointment, summary *domain.RunSummary) {
	user, err := s.directory.GetUser(ctx, ownerID)
	if err != nil || user == nil {
		log.Error("owner lookup failed", logging.KeyUser, ownerID, logging.KeyError, err)
		summary.Errors++
		return
	}

	session, err := s.sessions.Session(ctx, ownerID)
	if err != nil {
		log.Error("obtaining session failed", logging.KeyUser, ownerID, logging.KeyError, err)
		summary.Errors++
		return
	}
	if session == nil {
		log.Debug("owner has no usable session, skipping", logging.KeyUser, ownerID)
		summary.Skipped++
		return
	}

	msg, err := s.reminderEmail(ctx, user, appts)
	if err != nil {
		log.Error("building reminder failed", logging.KeyUser, ownerID, logging.KeyError, err)
		summary.Errors++
		return
	}

	if err := s.mail.Send(ctx, session.AccessToken, msg); err != nil {
		log.Error("sending reminder failed", logging.KeyUser, ownerID, logging.KeyError, err)
		summary.Errors++
		return
	}

	log.Info("reminder sent", logging.KeyUser, ownerID, "appointments", len(appts))
	summary.Synced++
}

// reminderEmail renders the day's appointments as an HTML table.
func (s *RemindService) reminderEmail(ctx context.Context, user *domain.User, appts []domain.Appointment) (domain.OutboundEmail, error) {
	today := time.Now().In(s.location).Format("02/01/2006")

	var rows strings.Builder
	for _, appt := range appts {
		clientName := "N/A"
		if client, err := s.directory.GetClient(ctx, appt.ClientID); err == nil && client != nil {
			clientName = client.Name
		}
		location := appt.Location
		if location == "" {
			location = "to be confirmed"
		}
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			appt.ScheduledAt.In(s.location).Format("15:04"),
			appt.Title, clientName, location)
	}

	body := fmt.Sprintf(`<html><body>
<h2>Appointments for today - %s</h2>
<p>Hello <strong>%s</strong>,</p>
<p>You have <strong>%d appointment(s)</strong> today:</p>
<table border="1" cellpadding="6" cellspacing="0">
<thead><tr><th>Time</th><th>Title</th><th>Client</th><th>Location</th></tr></thead>
<tbody>
%s</tbody>
</table>
<p>This is an automatic reminder. Remember to update appointment status after each meeting.</p>
</body></html>`, today, user.Name, len(appts), rows.String())

	return domain.OutboundEmail{
		To:       user.Email,
		Subject:  "Appointments for today - " + today,
		HTMLBody: body,
	}, nil
}
