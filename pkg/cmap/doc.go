// Package cmap provides a concurrent map for refstate.
//
// The map is split into a power-of-two number of shards, each guarded by its
// own RWMutex. Keys are strings and are routed to shards with murmur3, so the
// shard of a key is stable across processes.
//
// Usage:
//
//	m := cmap.New[*domain.ReferenceRecord]()
//	m.Set("k", rec)
//	rec, ok := m.Get("k")
//
// Conditional operations (Pop, DeleteIf, Upsert) run under the shard lock,
// which is what the expiring store relies on to let eviction timers and
// writers race without clobbering each other.
package cmap
