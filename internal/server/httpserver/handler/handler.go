// Package handler provides HTTP request handlers for refstate.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	refstatev1 "github.com/yndnr/refstate-go/api/v1"
	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/internal/telemetry/logger"
)

// DefaultBasePath is the mount point of the reference endpoints.
const DefaultBasePath = "/api/ref-state"

// maxBodyBytes bounds a create request body.
const maxBodyBytes = 8 << 20

// ReferenceService is the server-side reference API used by the handlers.
type ReferenceService interface {
	service.Backend
	DeleteReference(ctx context.Context, id string) error
}

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	refs     ReferenceService
	basePath string
	logger   *slog.Logger
	checks   map[string]ReadyCheck
	started  time.Time
	mux      *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithBasePath mounts the reference endpoints under path.
func WithBasePath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.basePath = "/" + strings.Trim(path, "/")
		}
	}
}

// WithReadyCheck adds a named readiness check to GET /ready.
func WithReadyCheck(name string, check ReadyCheck) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

// New creates a new Handler with the given service.
func New(refs ReferenceService, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		refs:     refs,
		basePath: DefaultBasePath,
		logger:   logger,
		checks:   make(map[string]ReadyCheck),
		started:  time.Now(),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// BasePath returns the mount point of the reference endpoints.
func (h *Handler) BasePath() string {
	return h.basePath
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// Reference endpoints
	h.mux.HandleFunc("POST "+h.basePath, h.handleCreateReference)
	h.mux.HandleFunc("GET "+h.basePath+"/{id}", h.handleGetReference)
	h.mux.HandleFunc("DELETE "+h.basePath+"/{id}", h.handleDeleteReference)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := refstatev1.NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := refstatev1.NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts request ID from context or header.
func getRequestID(r *http.Request) string {
	if reqID := logger.RequestIDFromContext(r.Context()); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if de, ok := domain.AsDomainError(err); ok {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context(), h.logger).Error("request failed", "code", de.Code, "error", err)
		}
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.writeError(w, r, status, de.Code, de.Message, details)
		return
	}

	// Generic internal error
	logger.L(r.Context(), h.logger).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
// The first three digits of the numeric suffix are the status:
// RS-REF-4040 -> 404, RS-NET-5020 -> 502.
func errorCodeToHTTPStatus(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 != 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[i+1 : len(code)-1])
	if err != nil || n < 400 || n > 599 {
		return http.StatusInternalServerError
	}
	return n
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrBadRequest.WithDetails("request body too large")
		}
		return domain.ErrBadRequest.WithDetails(err.Error())
	}
	return nil
}
