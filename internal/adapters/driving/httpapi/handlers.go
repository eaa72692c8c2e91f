package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driving"
	"github.com/onboardhq/syncgate/internal/logging"
)

type handlers struct {
	connections    driving.ConnectionManager
	jobs           driving.JobRunner
	frontendOrigin string
	logger         *slog.Logger
}

// connect sends the browser to the Google consent screen for the user
// named in the query.
func (h *handlers) connect(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	authURL, err := h.connections.AuthorizationURL(userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// callback receives the provider redirect. The state parameter carries the
// user id handed out by connect. Whatever happens, the browser ends up
// back at the frontend with a machine-readable result.
func (h *handlers) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("state")

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Warn("consent denied or failed",
			logging.KeyUser, userID, "provider_error", errParam)
		h.redirectResult(w, r, "error", errParam)
		return
	}

	code := q.Get("code")
	if userID == "" || code == "" {
		h.redirectResult(w, r, "error", "missing code or state")
		return
	}

	if err := h.connections.CompleteAuthorization(r.Context(), userID, code); err != nil {
		h.logger.Error("completing authorization failed",
			logging.KeyUser, userID, logging.KeyError, err)
		h.redirectResult(w, r, "error", "exchange failed")
		return
	}

	h.redirectResult(w, r, "connected", "")
}

// redirectResult bounces the browser back to the frontend with the
// outcome in the query string, or answers in plain text when no frontend
// origin is configured.
func (h *handlers) redirectResult(w http.ResponseWriter, r *http.Request, result, reason string) {
	if h.frontendOrigin == "" {
		if result == "connected" {
			fmt.Fprintln(w, "Google account connected. You can close this window.")
			return
		}
		http.Error(w, "Google connection failed: "+reason, http.StatusBadRequest)
		return
	}

	target, err := url.Parse(h.frontendOrigin)
	if err != nil {
		http.Error(w, "invalid frontend origin", http.StatusInternalServerError)
		return
	}
	q := target.Query()
	q.Set("google", result)
	if reason != "" {
		q.Set("reason", reason)
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

type statusResponse struct {
	Connected      bool       `json:"connected"`
	Scopes         []string   `json:"scopes,omitempty"`
	Expiry         *time.Time `json:"expiry,omitempty"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
	NeedsReconnect bool       `json:"needs_reconnect"`
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	st, err := h.connections.Status(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{
		Connected:      st.Connected,
		Scopes:         st.Scopes,
		Expiry:         st.Expiry,
		LastUpdated:    st.LastUpdated,
		NeedsReconnect: st.NeedsReconnect,
	})
}

func (h *handlers) disconnect(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if err := h.connections.Disconnect(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type jobStatusResponse struct {
	Running bool               `json:"running"`
	Jobs    []jobDescriptorDTO `json:"jobs"`
}

type jobDescriptorDTO struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Spec    string     `json:"spec"`
	LastRun *time.Time `json:"last_run,omitempty"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

func (h *handlers) jobStatus(w http.ResponseWriter, _ *http.Request) {
	descriptors := h.jobs.Descriptors()
	resp := jobStatusResponse{
		Running: h.jobs.Running(),
		Jobs:    make([]jobDescriptorDTO, 0, len(descriptors)),
	}
	for _, d := range descriptors {
		resp.Jobs = append(resp.Jobs, jobDescriptorDTO{
			ID:      d.ID,
			Name:    d.Name,
			Spec:    d.Spec,
			LastRun: timePtr(d.LastRun),
			NextRun: timePtr(d.NextRun),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) runJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobID")
	if !h.jobs.RunNow(jobID) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown job: " + jobID,
		})
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"job":    jobID,
		"status": "triggered",
	})
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response failed", logging.KeyError, err)
	}
}

// writeError maps domain errors onto HTTP statuses. Unclassified errors
// stay opaque to the client.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrNotConfigured):
		status, msg = http.StatusServiceUnavailable, err.Error()
	default:
		h.logger.Error("request failed", logging.KeyError, err)
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
