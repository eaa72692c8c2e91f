package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
)

// Ensure CalendarGateway implements the port.
var _ driven.CalendarGateway = (*CalendarGateway)(nil)

// PrimaryCalendarID is the calendar events are created in.
const PrimaryCalendarID = "primary"

// CalendarGateway creates events in the user's primary Google calendar.
type CalendarGateway struct {
	location *time.Location
	limiter  *RateLimiter
}

// NewCalendarGateway creates a gateway producing events in the given
// timezone.
func NewCalendarGateway(location *time.Location) *CalendarGateway {
	return &CalendarGateway{
		location: location,
		limiter:  NewRateLimiter(ServiceCalendar),
	}
}

// CreateEvent inserts an event and returns its remote id.
func (g *CalendarGateway) CreateEvent(ctx context.Context, accessToken string, ev domain.CalendarEvent) (string, error) {
	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	created, err := svc.Events.Insert(PrimaryCalendarID, g.buildEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: inserting event: %v", domain.ErrProtocol, err)
	}
	return created.Id, nil
}

// UpdateEvent replaces an existing event's details.
func (g *CalendarGateway) UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, ev domain.CalendarEvent) error {
	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return err
	}

	if _, err := svc.Events.Update(calendarID, eventID, g.buildEvent(ev)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: updating event %s: %v", domain.ErrProtocol, eventID, err)
	}
	return nil
}

// CancelEvent deletes an event.
func (g *CalendarGateway) CancelEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	svc, err := g.service(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: deleting event %s: %v", domain.ErrProtocol, eventID, err)
	}
	return nil
}

// service builds a Calendar API client bound to the session's access token.
func (g *CalendarGateway) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("%w: creating calendar client: %v", domain.ErrProtocol, err)
	}
	return svc, nil
}

// buildEvent maps the domain event onto the Calendar API shape, with email
// and popup reminders ahead of the start.
func (g *CalendarGateway) buildEvent(ev domain.CalendarEvent) *calendar.Event {
	event := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.In(g.location).Format(time.RFC3339),
			TimeZone: g.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.In(g.location).Format(time.RFC3339),
			TimeZone: g.location.String(),
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 15},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if ev.AttendeeEmail != "" {
		event.Attendees = []*calendar.EventAttendee{{Email: ev.AttendeeEmail}}
	}
	return event
}
