// Package pagestate keeps the current reference token of a "page".
//
// A page is a location URL plus a persistence slot. The token may live in
// the location's query string (a shared link) and in the slot (the local
// copy that survives restarts). Load prefers the query parameter, so
// opening a shared link wins over whatever was saved locally.
//
// Slots:
//
//   - MemorySlot: process-local map, for tests and embedding
//   - FileSlot: YAML file under the user config directory, used by the CLI
package pagestate
