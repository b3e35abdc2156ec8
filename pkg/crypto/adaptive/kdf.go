// Package adaptive provides authenticated encryption with automatic algorithm selection.
package adaptive

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the size of keys produced by DeriveKey.
const KeySize = 32

// kdfInfo binds derived keys to their use.
var kdfInfo = []byte("refstate/client-token/v1")

// ErrEmptySecret is returned when no secret is configured.
var ErrEmptySecret = errors.New("adaptive: secret must not be empty")

// DeriveKey derives a KeySize key from secret and salt with HKDF-SHA256.
//
// The salt is appended to the secret before extraction, matching the
// "secret + salt" keying of client tokens; an empty salt means the base
// secret.
func DeriveKey(secret, salt string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	r := hkdf.New(sha256.New, []byte(secret+salt), nil, kdfInfo)
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
