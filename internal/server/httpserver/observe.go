// Package httpserver provides the HTTP/HTTPS server for refstate.
package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/refstate-go/internal/telemetry/logger"
)

// AccessLog writes one record per finished request. 4xx log at warn and
// 5xx at error.
func AccessLog(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			start, ok := RequestStart(r.Context())
			if !ok {
				start = time.Now()
			}

			level, msg := slog.LevelInfo, "request completed"
			switch {
			case sw.status >= 500:
				level, msg = slog.LevelError, "request failed"
			case sw.status >= 400:
				level, msg = slog.LevelWarn, "request rejected"
			}
			logger.L(r.Context(), log).Log(r.Context(), level, msg,
				"method", r.Method,
				"path", r.URL.Path,
				"route", r.Pattern,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", clientIP(r),
			)
		})
	}
}

// RequestRecorder receives per-request measurements.
type RequestRecorder interface {
	RecordRequest(route, method, status string, seconds float64)
}

// Metrics reports each request to rec under its matched route pattern.
// It must wrap the routing mux directly for the pattern to be set.
func Metrics(rec RequestRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			rec.RecordRequest(route, r.Method, strconv.Itoa(sw.status), time.Since(start).Seconds())
		})
	}
}
