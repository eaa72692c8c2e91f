package driven

import (
	"context"

	"github.com/onboardhq/syncgate/internal/core/domain"
)

// Directory provides read access to users and clients.
// The wider CRM owns these entities; this subsystem only looks them up when
// building calendar events and notification emails.
type Directory interface {
	// GetUser retrieves a user by id. Returns nil if absent.
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// GetClient retrieves a client by id. Returns nil if absent.
	GetClient(ctx context.Context, id string) (*domain.Client, error)

	// SaveUser creates or updates a user.
	SaveUser(ctx context.Context, user domain.User) error

	// SaveClient creates or updates a client.
	SaveClient(ctx context.Context, client domain.Client) error
}
