package driving

import (
	"context"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

// SessionProvider hands out per-user authenticated sessions.
// This is the narrow dependency background jobs need.
type SessionProvider interface {
	// Session returns a session wrapping a valid access token for the user,
	// refreshing and re-persisting tokens when expired. Returns nil without
	// error when the user is not connected or the refresh failed; "not
	// connected" is an expected outcome, not an error.
	Session(ctx context.Context, userID string) (*domain.Session, error)
}

// ConnectionManager orchestrates the Google authorization lifecycle.
type ConnectionManager interface {
	SessionProvider

	// AuthorizationURL builds the consent URL for a user, embedding the
	// user id as opaque correlation state.
	AuthorizationURL(userID string) (string, error)

	// CompleteAuthorization exchanges an authorization code and persists
	// the resulting token pair for the user.
	CompleteAuthorization(ctx context.Context, userID, code string) error

	// Disconnect revokes the user's access token (best effort) and removes
	// the connection. Idempotent.
	Disconnect(ctx context.Context, userID string) error

	// Status returns the read-only connection projection, with no refresh
	// side effect.
	Status(ctx context.Context, userID string) (domain.ConnectionStatus, error)
}
