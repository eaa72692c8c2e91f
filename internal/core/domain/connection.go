package domain

import "time"

// Connection holds a user's Google delegated credentials.
// Each user has at most one live connection. Tokens are plaintext in memory
// only; the store encrypts them at rest and decrypts on read.
type Connection struct {
	// UserID is the owning user. Unique key.
	UserID string `json:"user_id"`

	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is the long-lived credential used to mint new access
	// tokens. Preserved across refreshes unless the provider rotates it.
	RefreshToken string `json:"refresh_token"`

	// Expiry is when the access token stops being valid.
	Expiry time.Time `json:"expiry"`
	// Scopes are the capability scopes the user granted.
	Scopes []string `json:"scopes"`

	// CreatedAt is when the connection was first established.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired returns true if the access token has expired.
func (c *Connection) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// TokenSet is a token pair returned by the authorization server.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scopes       []string
}

// Session wraps a valid access token, ready for Google API calls.
type Session struct {
	UserID      string
	AccessToken string
	Expiry      time.Time
}

// staleThreshold is how long past expiry a connection may sit before the
// status projection reports it as needing reconnection. Hourly refresh
// attempts failing for a full day means the refresh token is dead.
const staleThreshold = 24 * time.Hour

// ConnectionStatus is a read-only projection of a user's connection.
// The connected flag stays true while a record exists, even when refreshes
// fail; NeedsReconnect is the signal that the grant must be redone.
type ConnectionStatus struct {
	Connected      bool       `json:"connected"`
	Scopes         []string   `json:"scopes,omitempty"`
	Expiry         *time.Time `json:"expiry,omitempty"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
	NeedsReconnect bool       `json:"needs_reconnect,omitempty"`
}

// StatusOf builds the status projection for a connection.
// A nil connection projects to disconnected.
func StatusOf(conn *Connection) ConnectionStatus {
	if conn == nil {
		return ConnectionStatus{}
	}
	expiry := conn.Expiry
	updated := conn.UpdatedAt
	return ConnectionStatus{
		Connected:      true,
		Scopes:         conn.Scopes,
		Expiry:         &expiry,
		LastUpdated:    &updated,
		NeedsReconnect: !expiry.IsZero() && time.Since(expiry) > staleThreshold,
	}
}
