// Package domain defines the core domain models for refstate.
//
// Domain models are plain values without IO dependencies:
//
//   - ReferenceState: the client-path payload sealed into a "c:" token
//   - ReferenceRecord: the server-path payload stored behind a reference id
//   - Token: the framed string handed to callers ("c:..." or "s:...")
//   - Errors: DomainError and the error taxonomy (NETWORK, ENCRYPTION,
//     DECRYPTION, NOT_FOUND, INVALID, SERVER)
//
// Timestamps are Unix milliseconds throughout.
package domain
