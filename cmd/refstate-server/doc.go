// Package main provides the entry point for refstate-server.
//
// The server stores identifier lists behind short reference ids for the
// server path of reference-state tokens:
//
//   - POST {base}          create a reference
//   - GET {base}/{id}      fetch a reference
//   - DELETE {base}/{id}   remove a reference
//   - GET /health, /ready and /metrics
//
// Usage:
//
//	refstate-server [flags]
//	refstate-server --config /etc/refstate/server.yaml
//
// Environment variables override the file, e.g. REFSTATE_LOG__LEVEL=debug.
// Edits to log.level in the config file apply without a restart; when TLS
// is configured, replaced certificate files are picked up the same way.
package main
