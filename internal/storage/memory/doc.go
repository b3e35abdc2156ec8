// Package memory provides in-memory reference storage for refstate.
//
// It implements storage.Store on a sharded concurrent map.
//
// Expiry:
//
// Every Set arms a time.AfterFunc timer for the entry's ttl. Each entry
// carries a generation number and its timer only deletes the entry with
// that generation, so a timer armed for an overwritten record never removes
// its replacement. Overwrite and Delete stop the previous timer. Reads also
// check ExpiresAt and remove stale entries lazily.
//
// Thread Safety:
//
// All operations are thread-safe through per-shard locking.
package memory
