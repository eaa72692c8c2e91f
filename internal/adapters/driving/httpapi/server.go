// Package httpapi is the HTTP driving adapter: the Google integration
// endpoints the frontend talks to, the job control surface, and the
// operational endpoints.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onboardhq/syncgate/internal/core/ports/driving"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// Server serves the application API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Config carries the server wiring.
type Config struct {
	Addr string

	// FrontendOrigin is where the OAuth callback sends browsers after the
	// exchange. Empty falls back to a bare text response.
	FrontendOrigin string

	Connections driving.ConnectionManager
	Jobs        driving.JobRunner
	Logger      *slog.Logger
}

// NewServer assembles the router and the underlying http.Server.
func NewServer(cfg Config) *Server {
	h := &handlers{
		connections:    cfg.Connections,
		jobs:           cfg.Jobs,
		frontendOrigin: cfg.FrontendOrigin,
		logger:         cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /integrations/google/connect", h.connect)
	mux.HandleFunc("GET /integrations/google/callback", h.callback)
	mux.HandleFunc("GET /integrations/google/status/{userID}", h.status)
	mux.HandleFunc("DELETE /integrations/google/{userID}", h.disconnect)
	mux.HandleFunc("GET /api/v1/jobs/status", h.jobStatus)
	mux.HandleFunc("POST /api/v1/jobs/run/{jobID}", h.runJob)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
		},
		logger: cfg.Logger,
	}
}

// Start listens and serves until Shutdown. Blocks; run in a goroutine for
// non-blocking operation. A closed server returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
