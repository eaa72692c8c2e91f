// Package domain defines the core business entities for Syncgate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Connection: A user's Google delegated credentials
//   - Appointment: A scheduled client visit, mirrored into Google Calendar
//   - JobDescriptor / RunSummary: Scheduler bookkeeping
//
// Domain is at the centre of the hexagon. It may only import the Go
// standard library. All other packages depend on domain, never the reverse.
package domain
