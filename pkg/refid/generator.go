// Package refid generates reference ids for server-held references.
package refid

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Format is the rendering of a generated id.
type Format string

const (
	FormatAlphanumeric Format = "alphanumeric"
	FormatHex          Format = "hex"
	FormatBase64URL    Format = "base64url"
)

// Length limits.
const (
	MaxLength = 256

	// rawSize is the number of random bytes fed to HMAC for salted ids.
	rawSize = 32
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Errors returned by the generator.
var (
	ErrInvalidLength = errors.New("refid: invalid length")
	ErrUnknownFormat = errors.New("refid: unknown id format")
	ErrNoSecret      = errors.New("refid: salted id requested but no secret configured")
)

// ParseFormat maps a configuration or request value to a Format.
// The empty string selects FormatAlphanumeric.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "alphanumeric", "alnum", "plain":
		return FormatAlphanumeric, nil
	case "hex":
		return FormatHex, nil
	case "base64", "base64url", "base64-url":
		return FormatBase64URL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DefaultLength returns the default id length for a format.
func DefaultLength(f Format) int {
	if f == FormatBase64URL {
		return 20
	}
	return 16
}

// Generator produces reference ids.
type Generator struct {
	src    Source
	secret []byte
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource sets the randomness source.
func WithSource(src Source) Option {
	return func(g *Generator) {
		g.src = src
	}
}

// WithSecret sets the server secret used for salted ids.
func WithSecret(secret string) Option {
	return func(g *Generator) {
		g.secret = []byte(secret)
	}
}

// New creates a Generator. Without WithSource the source is detected once.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.src == nil {
		g.src = DetectSource(slog.Default())
	}
	if !g.src.Secure() {
		slog.Default().Warn("refid: generator built on an insecure source")
	}
	return g
}

// Secure reports whether ids come from a cryptographically strong source.
func (g *Generator) Secure() bool {
	return g.src.Secure()
}

// HasSecret reports whether salted ids can be produced.
func (g *Generator) HasSecret() bool {
	return len(g.secret) > 0
}

// Generate returns length characters of randomness rendered in format.
//
// When useSalt is set the random bytes are mixed with the server secret
// through HMAC-SHA256 before rendering.
func (g *Generator) Generate(length int, format Format, useSalt bool) (string, error) {
	if length <= 0 || length > MaxLength {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	fill := g.src.Read
	if useSalt {
		if len(g.secret) == 0 {
			return "", ErrNoSecret
		}
		raw := make([]byte, rawSize)
		if _, err := g.src.Read(raw); err != nil {
			return "", fmt.Errorf("refid: read random: %w", err)
		}
		fill = newMixer(g.secret, raw).Read
	}

	return render(length, format, fill)
}

// render draws bytes from fill and encodes exactly length characters.
func render(length int, format Format, fill func([]byte) (int, error)) (string, error) {
	switch format {
	case FormatHex:
		buf := make([]byte, (length+1)/2)
		if _, err := fill(buf); err != nil {
			return "", fmt.Errorf("refid: read random: %w", err)
		}
		return hex.EncodeToString(buf)[:length], nil

	case FormatBase64URL:
		buf := make([]byte, (length*3+3)/4)
		if _, err := fill(buf); err != nil {
			return "", fmt.Errorf("refid: read random: %w", err)
		}
		return base64.RawURLEncoding.EncodeToString(buf)[:length], nil

	case FormatAlphanumeric:
		// Rejection sampling keeps the distribution uniform:
		// 248 is the largest multiple of 62 below 256.
		out := make([]byte, 0, length)
		buf := make([]byte, length+length/4+1)
		for len(out) < length {
			if _, err := fill(buf); err != nil {
				return "", fmt.Errorf("refid: read random: %w", err)
			}
			for _, b := range buf {
				if b >= 248 {
					continue
				}
				out = append(out, alphabet[int(b)%len(alphabet)])
				if len(out) == length {
					break
				}
			}
		}
		return string(out), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// mixer expands HMAC-SHA256(secret, raw||counter) into a byte stream.
type mixer struct {
	mac     []byte
	raw     []byte
	counter uint32
	buf     []byte
}

func newMixer(secret, raw []byte) *mixer {
	return &mixer{mac: secret, raw: raw}
}

func (m *mixer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(m.buf) == 0 {
			h := hmac.New(sha256.New, m.mac)
			h.Write(m.raw)
			var ctr [4]byte
			binary.BigEndian.PutUint32(ctr[:], m.counter)
			h.Write(ctr[:])
			m.buf = h.Sum(nil)
			m.counter++
		}
		c := copy(p[n:], m.buf)
		m.buf = m.buf[c:]
		n += c
	}
	return n, nil
}
