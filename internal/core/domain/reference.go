// Package domain defines the core domain models for refstate.
package domain

import (
	"slices"
	"time"
)

// OriginClient tags ReferenceState values sealed on the client path.
const OriginClient = "client"

// ReferenceState is the payload sealed into a client-path token.
type ReferenceState struct {
	// DocumentIDs is the ordered identifier list.
	DocumentIDs []string `json:"documentIds"`

	// CreatedAt is the creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"createdAt"`

	// Origin is always OriginClient.
	Origin string `json:"origin"`

	// Name is an optional label.
	Name string `json:"name,omitempty"`
}

// NewReferenceState creates a client-path state stamped with the current time.
func NewReferenceState(ids []string, name string) *ReferenceState {
	return &ReferenceState{
		DocumentIDs: CloneIDs(ids),
		CreatedAt:   time.Now().UnixMilli(),
		Origin:      OriginClient,
		Name:        name,
	}
}

// ReferenceRecord is a server-held reference.
type ReferenceRecord struct {
	// DocumentIDs is the ordered identifier list.
	DocumentIDs []string `json:"documentIds" cbor:"1,keyasint"`

	// Name is an optional label.
	Name string `json:"name" cbor:"2,keyasint,omitempty"`

	// CreatedAt is the creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"createdAt" cbor:"3,keyasint"`

	// ExpiresAt is the absolute expiration timestamp (Unix milliseconds).
	ExpiresAt int64 `json:"expiresAt" cbor:"4,keyasint"`

	// SaltUsed records whether the reference id was salted with the server secret.
	SaltUsed bool `json:"saltUsed" cbor:"5,keyasint,omitempty"`
}

// NewReferenceRecord creates a record stamped with the current time.
// ExpiresAt is filled in by the store.
func NewReferenceRecord(ids []string, name string, saltUsed bool) *ReferenceRecord {
	return &ReferenceRecord{
		DocumentIDs: CloneIDs(ids),
		Name:        name,
		CreatedAt:   time.Now().UnixMilli(),
		SaltUsed:    saltUsed,
	}
}

// IsExpiredAt reports whether the record is expired at nowMillis.
// A record is live only while ExpiresAt > now.
func (r *ReferenceRecord) IsExpiredAt(nowMillis int64) bool {
	return r.ExpiresAt <= nowMillis
}

// IsExpired reports whether the record has expired.
func (r *ReferenceRecord) IsExpired() bool {
	return r.IsExpiredAt(time.Now().UnixMilli())
}

// TTL returns the remaining time to live, or 0 once expired.
func (r *ReferenceRecord) TTL() time.Duration {
	remaining := r.ExpiresAt - time.Now().UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// Clone returns a deep copy of the record.
func (r *ReferenceRecord) Clone() *ReferenceRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.DocumentIDs = CloneIDs(r.DocumentIDs)
	return &c
}

// CloneIDs copies an identifier list. A nil list becomes an empty one so
// that it serializes as [] rather than null.
func CloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
