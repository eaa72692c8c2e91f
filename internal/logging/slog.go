// Package logging provides the shared slog setup and attribute-key
// constants used across the codebase, so log fields stay greppable.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyJob         = "job"
	KeyUser        = "user"
	KeyAppointment = "appointment"
	KeyEvent       = "event"
	KeyError       = "error"
	KeySynced      = "synced"
	KeySkipped     = "skipped"
	KeyErrors      = "errors"
	KeyDuration    = "duration"
)

// New creates the application logger writing to stderr.
// Verbose mode lowers the level to debug.
func New(verbose bool) *slog.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a logger with a custom writer. Useful for testing.
func NewWithWriter(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
