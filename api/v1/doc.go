// Package refstatev1 defines the JSON wire contract of the refstate HTTP API.
//
// Every response uses the Response envelope; operation payloads travel in
// its Data field. Field names are camelCase to match browser clients of the
// reference-state endpoint. Timestamps are Unix milliseconds.
//
// The server handlers and the HTTP client both import this package, so the
// two sides cannot drift.
package refstatev1
