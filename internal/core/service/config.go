// Package service provides domain services for refstate.
package service

import (
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/pkg/crypto/adaptive"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// Defaults shared by the codec and the server.
const (
	DefaultMaxClientDocs = 50
	DefaultExpiry        = 7 * 24 * time.Hour
	DefaultMaxExpiry     = 30 * 24 * time.Hour
	DefaultMaxDocuments  = 10000
)

// Config holds the codec settings. It is copied at construction and never
// mutated afterward.
type Config struct {
	// MaxClientDocs is the largest list kept on the client path.
	MaxClientDocs int

	// KeyLength is the reference id length requested from the server.
	// Zero means refid.DefaultLength(KeyFormat).
	KeyLength int

	// KeyFormat is the reference id encoding requested from the server.
	KeyFormat refid.Format

	// Secret keys client-path encryption.
	Secret string

	// DefaultExpiry applies to server references created without ExpireIn.
	DefaultExpiry time.Duration

	// Endpoint is the server base URL used by HTTP backends.
	Endpoint string

	// Debug enables debug logging of codec decisions.
	Debug bool

	// Cipher selects the client-path AEAD. Tokens only open under the
	// cipher that sealed them, so every party must agree on it.
	Cipher adaptive.CipherType
}

// DefaultConfig returns the default codec configuration without a secret.
func DefaultConfig() Config {
	return Config{
		MaxClientDocs: DefaultMaxClientDocs,
		KeyFormat:     refid.FormatAlphanumeric,
		DefaultExpiry: DefaultExpiry,
		Cipher:        adaptive.CipherAESGCM,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxClientDocs <= 0 {
		c.MaxClientDocs = d.MaxClientDocs
	}
	if c.KeyFormat == "" {
		c.KeyFormat = d.KeyFormat
	}
	if c.KeyLength <= 0 {
		c.KeyLength = refid.DefaultLength(c.KeyFormat)
	}
	if c.DefaultExpiry <= 0 {
		c.DefaultExpiry = d.DefaultExpiry
	}
	if c.Cipher == "" {
		c.Cipher = d.Cipher
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Secret == "" {
		return domain.ErrInvalidArgument.WithDetails("secret is required")
	}
	if c.KeyLength < 0 || c.KeyLength > refid.MaxLength {
		return domain.ErrInvalidArgument.WithDetails("key length out of range")
	}
	if c.KeyFormat != "" {
		if _, err := refid.ParseFormat(string(c.KeyFormat)); err != nil {
			return domain.ErrInvalidArgument.WithDetails(err.Error())
		}
	}
	if c.Cipher != "" && c.Cipher != adaptive.CipherAESGCM && c.Cipher != adaptive.CipherChaCha20 {
		return domain.ErrInvalidArgument.WithDetails("unknown cipher: " + string(c.Cipher))
	}
	return nil
}
