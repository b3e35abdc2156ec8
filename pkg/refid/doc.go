// Package refid generates reference ids for server-held references.
//
// Id Formats:
//
//   - alphanumeric: [A-Za-z0-9], default 16 characters
//   - hex: lowercase [0-9a-f], default 16 characters
//   - base64url: [A-Za-z0-9_-] without padding, default 20 characters
//
// Randomness:
//
//   - The Source is chosen once, when the Generator is built
//   - CryptoSource (crypto/rand) is the default
//   - FallbackSource is a seeded PCG generator for hosts without a working
//     CSPRNG; it is never silently treated as secure and logs a warning
//
// Salted Ids:
//
// With useSalt the raw random bytes are run through HMAC-SHA256 keyed with
// the server secret, and the digest stream is rendered instead. The result
// does not reveal the secret, and ids can only be minted by holders of it.
package refid
