package driven

import (
	"context"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

// ConnectionStore persists one Connection record per user.
//
// Implementations encrypt tokens before writing and decrypt on read. The
// denormalized connected flag on the user row moves in the same transaction
// as the record itself: a record exists if and only if the flag is true.
type ConnectionStore interface {
	// Get retrieves the connection for a user with tokens decrypted.
	// Returns nil if the user has no connection.
	Get(ctx context.Context, userID string) (*domain.Connection, error)

	// Upsert replaces the user's connection record as a whole and sets the
	// user's connected flag. The caller supplies the refresh token
	// explicitly; the store never merges in the previous value.
	Upsert(ctx context.Context, conn domain.Connection) error

	// Delete removes the user's connection and clears the connected flag
	// atomically. Deleting an absent connection is a no-op.
	Delete(ctx context.Context, userID string) error

	// IsConnected reports the user's denormalized connected flag.
	IsConnected(ctx context.Context, userID string) (bool, error)
}
