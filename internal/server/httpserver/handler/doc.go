// Package handler implements the refstate HTTP API.
//
// POST {base} stores an id list and returns its reference id, GET and
// DELETE {base}/{id} fetch and remove it. /health and /ready report
// liveness and readiness. Every response uses the refstatev1 envelope and
// service errors map to HTTP status by their code.
package handler
