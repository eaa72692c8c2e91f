package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
	"github.com/onboardhq/syncgate/internal/core/ports/driving"
	"github.com/onboardhq/syncgate/internal/logging"
)

// Ensure ConnectionService implements the interface.
var _ driving.ConnectionManager = (*ConnectionService)(nil)

// ConnectionService orchestrates the per-user Google authorization
// lifecycle: consent, code exchange, transparent refresh, disconnect.
//
// It is the only component that writes Connection records. The refresh
// token is only ever replaced by a value the provider explicitly returned;
// a refresh that does not rotate it keeps the original.
type ConnectionService struct {
	oauth  driven.OAuthClient
	store  driven.ConnectionStore
	logger *slog.Logger
}

// NewConnectionService creates a new connection service.
func NewConnectionService(oauth driven.OAuthClient, store driven.ConnectionStore, logger *slog.Logger) *ConnectionService {
	return &ConnectionService{
		oauth:  oauth,
		store:  store,
		logger: logger,
	}
}

// AuthorizationURL builds the consent URL for a user. The user id rides
// along as the opaque state parameter and comes back on the callback.
func (s *ConnectionService) AuthorizationURL(userID string) (string, error) {
	if userID == "" {
		return "", domain.ErrInvalidInput
	}
	if s.oauth == nil {
		return "", domain.ErrNotConfigured
	}
	return s.oauth.AuthCodeURL(userID), nil
}

// CompleteAuthorization exchanges an authorization code and persists the
// token pair. First-time consent must always yield a refresh token; its
// absence is a hard failure, not a partial success.
func (s *ConnectionService) CompleteAuthorization(ctx context.Context, userID, code string) error {
	if userID == "" || code == "" {
		return domain.ErrInvalidInput
	}
	if s.oauth == nil {
		return domain.ErrNotConfigured
	}

	tokens, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return err
	}
	if tokens.RefreshToken == "" {
		return fmt.Errorf("%w: provider returned no refresh token", domain.ErrExchange)
	}

	now := time.Now().UTC()
	err = s.store.Upsert(ctx, domain.Connection{
		UserID:       userID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       tokens.Expiry,
		Scopes:       tokens.Scopes,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("persisting connection: %w", err)
	}

	s.logger.Info("google connection established", logging.KeyUser, userID)
	return nil
}

// Session returns a session wrapping a valid access token for the user.
//
// This is the one true state transition of the subsystem: read, decrypt,
// refresh when expired, rewrite. A user with no record yields (nil, nil);
// not connected is an expected outcome. A failed refresh also yields
// (nil, nil) and leaves the stale record in place: a transient provider
// outage must not sever the connection.
func (s *ConnectionService) Session(ctx context.Context, userID string) (*domain.Session, error) {
	conn, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, nil
	}

	if !conn.IsExpired() {
		return sessionFor(conn), nil
	}

	tokens, err := s.oauth.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed, keeping stale connection",
			logging.KeyUser, userID, logging.KeyError, err)
		return nil, nil
	}

	conn.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		conn.RefreshToken = tokens.RefreshToken
	}
	conn.Expiry = tokens.Expiry
	conn.UpdatedAt = time.Now().UTC()

	// Two callers may race to refresh the same user. Both exchanges yield a
	// freshly issued access token, so last writer wins is fine here.
	if err := s.store.Upsert(ctx, *conn); err != nil {
		return nil, fmt.Errorf("persisting refreshed tokens: %w", err)
	}

	s.logger.Debug("access token refreshed", logging.KeyUser, userID)
	return sessionFor(conn), nil
}

// Disconnect revokes the access token with the provider (best effort), then
// deletes the connection and clears the connected flag as one unit.
// Disconnecting an already-disconnected user is a no-op success.
func (s *ConnectionService) Disconnect(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrInvalidInput
	}

	conn, err := s.store.Get(ctx, userID)
	if err != nil {
		// A corrupt record must still be deletable.
		s.logger.Warn("reading connection before disconnect failed",
			logging.KeyUser, userID, logging.KeyError, err)
	}
	if conn != nil {
		if err := s.oauth.Revoke(ctx, conn.AccessToken); err != nil {
			s.logger.Warn("token revocation failed",
				logging.KeyUser, userID, logging.KeyError, err)
		}
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}

	s.logger.Info("google connection removed", logging.KeyUser, userID)
	return nil
}

// Status returns the read-only connection projection. No refresh happens
// here; an expired-but-present record still reports connected, with
// NeedsReconnect raised once the expiry is long past.
func (s *ConnectionService) Status(ctx context.Context, userID string) (domain.ConnectionStatus, error) {
	conn, err := s.store.Get(ctx, userID)
	if err != nil {
		return domain.ConnectionStatus{}, err
	}
	return domain.StatusOf(conn), nil
}

func sessionFor(conn *domain.Connection) *domain.Session {
	return &domain.Session{
		UserID:      conn.UserID,
		AccessToken: conn.AccessToken,
		Expiry:      conn.Expiry,
	}
}
