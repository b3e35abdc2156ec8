// Package handler provides HTTP request handlers for refstate.
package handler

import (
	"context"
	"net/http"
	"time"

	refstatev1 "github.com/yndnr/refstate-go/api/v1"
	"github.com/yndnr/refstate-go/internal/infra/buildinfo"
)

// readyTimeout bounds all readiness checks of one request.
const readyTimeout = 2 * time.Second

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, refstatev1.HealthResponse{
		Status:  "healthy",
		Version: buildinfo.Version,
		Uptime:  int64(time.Since(h.started).Seconds()),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := refstatev1.HealthResponse{
		Status: "ready",
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	h.writeJSON(w, r, status, resp)
}
