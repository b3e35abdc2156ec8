// Package httpserver provides the HTTP/HTTPS server for refstate.
//
// This package serves the server path of the reference-state codec using
// stdlib net/http:
//
//   - Reference endpoints: POST {base}, GET {base}/{id}, DELETE {base}/{id}
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware chain: Recover, RequestID, AccessLog, CORS, RateLimit, Metrics.
// The base path defaults to /api/ref-state.
package httpserver
