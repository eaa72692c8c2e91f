package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates required server-side configuration is absent.
	// The Google client credentials and the token encryption key are mandatory;
	// the subsystem refuses to initialise without them.
	ErrNotConfigured = errors.New("google integration not configured")

	// ErrExchange indicates the authorization server rejected a code exchange
	// or a refresh grant, or returned an incomplete token set.
	ErrExchange = errors.New("token exchange rejected")

	// ErrIntegrity indicates stored ciphertext failed authentication.
	// This is data corruption or a wrong master key, never auto-recovered.
	ErrIntegrity = errors.New("token integrity check failed")

	// ErrProtocol indicates a Google API call failed.
	// Background jobs record it per item and retry on the next run.
	ErrProtocol = errors.New("google api call failed")
)
