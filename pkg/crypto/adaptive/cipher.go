// Package adaptive provides authenticated encryption with automatic algorithm selection.
package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// ErrCiphertextTooShort is returned when the input cannot even hold a nonce.
var ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt seals plaintext; the random nonce is prepended to the result.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt opens a value produced by Encrypt.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// New creates a cipher with the given key, picking the algorithm for the
// current architecture.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	build, ok := builders[cipherType]
	if !ok {
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", cipherType)
	}
	if !build.keyOK(len(key)) {
		return nil, fmt.Errorf("adaptive: invalid key size %d for %s", len(key), cipherType)
	}
	aead, err := build.aead(key)
	if err != nil {
		return nil, err
	}
	return sealer{typ: cipherType, aead: aead}, nil
}

// NewAESGCM returns AES-GCM. Key must be 16, 24 or 32 bytes.
func NewAESGCM(key []byte) (Cipher, error) {
	return NewWithType(key, CipherAESGCM)
}

// NewChaCha20 returns ChaCha20-Poly1305. Key must be 32 bytes.
func NewChaCha20(key []byte) (Cipher, error) {
	return NewWithType(key, CipherChaCha20)
}

type builder struct {
	keyOK func(n int) bool
	aead  func(key []byte) (cipher.AEAD, error)
}

var builders = map[CipherType]builder{
	CipherAESGCM: {
		keyOK: func(n int) bool { return n == 16 || n == 24 || n == 32 },
		aead: func(key []byte) (cipher.AEAD, error) {
			block, err := aes.NewCipher(key)
			if err != nil {
				return nil, err
			}
			return cipher.NewGCM(block)
		},
	},
	CipherChaCha20: {
		keyOK: func(n int) bool { return n == chacha20poly1305.KeySize },
		aead:  chacha20poly1305.New,
	},
}

// NewFromSecret derives a key from secret and salt and returns the preferred cipher.
func NewFromSecret(secret, salt string) (Cipher, error) {
	key, err := DeriveKey(secret, salt)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// Preferred returns the cipher type used by New.
// Go's crypto/aes is hardware accelerated on amd64 and arm64.
func Preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// sealer implements Cipher over any AEAD with a random prefixed nonce.
type sealer struct {
	typ  CipherType
	aead cipher.AEAD
}

func (s sealer) Type() CipherType { return s.typ }

// Encrypt seals plaintext under a fresh random nonce.
func (s sealer) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Decrypt splits off the nonce and opens the remainder.
func (s sealer) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrCiphertextTooShort
	}
	return s.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}

// NonceSize returns the nonce size in bytes.
func (s sealer) NonceSize() int {
	return s.aead.NonceSize()
}

// Overhead returns the authentication tag size in bytes.
func (s sealer) Overhead() int {
	return s.aead.Overhead()
}
