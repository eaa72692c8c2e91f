package driven

import (
	"context"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

// OAuthClient is the client side of the Google authorization protocol.
type OAuthClient interface {
	// AuthCodeURL builds the consent URL. The state is carried opaquely
	// through the redirect and returned on the callback.
	AuthCodeURL(state string) string

	// Exchange swaps an authorization code for a token set.
	// Fails with domain.ErrExchange when the provider rejects the code.
	Exchange(ctx context.Context, code string) (*domain.TokenSet, error)

	// Refresh mints a new access token from a refresh token. The returned
	// set carries the refresh token to keep using: the one supplied, a
	// rotated one, or empty when the provider omitted it.
	// Fails with domain.ErrExchange when the provider rejects the grant.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenSet, error)

	// Revoke invalidates an access token with the provider.
	Revoke(ctx context.Context, accessToken string) error
}

// CalendarGateway creates and maintains events in the user's calendar.
// All methods fail with errors matching domain.ErrProtocol on API failure.
type CalendarGateway interface {
	// CreateEvent inserts an event into the user's primary calendar and
	// returns the remote event id.
	CreateEvent(ctx context.Context, accessToken string, ev domain.CalendarEvent) (string, error)

	// UpdateEvent rewrites an existing event.
	UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, ev domain.CalendarEvent) error

	// CancelEvent deletes an event.
	CancelEvent(ctx context.Context, accessToken, calendarID, eventID string) error
}

// MailGateway sends email through the user's own mail grant.
type MailGateway interface {
	// Send delivers the message as the authenticated user.
	Send(ctx context.Context, accessToken string, msg domain.OutboundEmail) error
}
