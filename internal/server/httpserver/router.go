// Package httpserver provides the HTTP/HTTPS server for refstate.
package httpserver

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/yndnr/refstate-go/internal/server/httpserver/handler"
	"github.com/yndnr/refstate-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// References serves the reference endpoints.
	References handler.ReferenceService

	// Logger for request logging.
	Logger *slog.Logger

	// BasePath mounts the reference endpoints (default /api/ref-state).
	BasePath string

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP limit in requests/second (0 = unlimited).
	RateLimit float64

	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Empty means the
	// connection address is always the client IP.
	TrustedProxies []netip.Prefix

	// Metrics receives request measurements and serves /metrics.
	// Nil disables both.
	Metrics *metric.Registry

	// ReadyChecks are reported by GET /ready.
	ReadyChecks map[string]handler.ReadyCheck
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	opts := []handler.Option{handler.WithBasePath(cfg.BasePath)}
	for name, check := range cfg.ReadyChecks {
		opts = append(opts, handler.WithReadyCheck(name, check))
	}
	h := handler.New(cfg.References, log, opts...)

	// Order: Recover -> RequestID -> RealIP -> AccessLog -> CORS -> RateLimit -> Metrics -> Handler
	middlewares := []Middleware{
		Recover(log),
		RequestID(),
		RealIP(cfg.TrustedProxies),
		AccessLog(log),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, Metrics(cfg.Metrics))
	}

	mux := http.NewServeMux()
	mux.Handle("/", Chain(h, middlewares...))

	// Metrics endpoint, outside the rate limiter
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(log)))
	}

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		BasePath:           handler.DefaultBasePath,
		CORSAllowedOrigins: []string{"*"},
		RateLimit:          100,
	}
}
