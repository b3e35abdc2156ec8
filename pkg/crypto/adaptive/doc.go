// Package adaptive provides authenticated encryption for refstate tokens.
//
// A Cipher seals a plaintext into nonce||ciphertext||tag and opens it again.
// Two AEADs are supported:
//
//   - AES-256-GCM: preferred on amd64/arm64 where Go uses hardware AES
//   - ChaCha20-Poly1305: everywhere else
//
// Keys are never taken from configuration as-is; DeriveKey stretches a
// configured secret plus an optional per-reference salt into a 32 byte key
// with HKDF-SHA256, so "secret" and "secret"+"salt" yield unrelated keys.
//
// Usage:
//
//	c, err := adaptive.NewFromSecret(secret, salt)
//	sealed, err := c.Encrypt(plaintext, nil)
//	plaintext, err := c.Decrypt(sealed, nil)
//
// Ciphers are safe for concurrent use.
package adaptive
