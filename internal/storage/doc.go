// Package storage provides the expiring reference store for refstate.
//
// Store is the closed interface the reference service writes to. Two
// engines implement it:
//
//   - memory.Store: sharded in-memory map with per-key eviction timers
//   - BadgerStore: durable Badger v3 store with native entry TTL and
//     CBOR-encoded values
//
// Both engines check ExpiresAt on every read, so an entry is never
// returned once its deadline has passed even if the eviction has not run.
package storage
