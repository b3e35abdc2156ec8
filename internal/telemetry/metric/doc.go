// Package metric provides Prometheus metrics for refstate.
//
// Registry owns a private prometheus.Registry with the Go runtime and
// process collectors plus the refstate metrics:
//
//   - references created per path, client fallbacks, resolves per result
//   - raised conditions per error kind
//   - HTTP request counts and latency histograms per route
//   - stored and evicted references
//
// Registry implements service.Recorder. Metrics are exposed at /metrics in
// Prometheus format.
package metric
