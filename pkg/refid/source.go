// Package refid generates reference ids for server-held references.
package refid

import (
	"crypto/rand"
	"log/slog"
	mrand "math/rand/v2"
	"sync"
	"time"
)

// Source supplies random bytes to a Generator.
type Source interface {
	// Read fills p with random bytes.
	Read(p []byte) (int, error)

	// Secure reports whether the source is cryptographically strong.
	Secure() bool
}

// CryptoSource reads from crypto/rand.
type CryptoSource struct{}

// Read fills p from crypto/rand.
func (CryptoSource) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// Secure returns true.
func (CryptoSource) Secure() bool { return true }

// FallbackSource is a non-cryptographic PCG source.
type FallbackSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewFallbackSource creates a PCG source. A zero seed seeds from the clock.
// The returned source is deterministic for a fixed non-zero seed.
func NewFallbackSource(seed uint64, logger *slog.Logger) *FallbackSource {
	if logger == nil {
		logger = slog.Default()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Warn("refid: using NON-CRYPTOGRAPHIC random source, reference ids are predictable",
		"source", "pcg")
	return &FallbackSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Read fills p with pseudo-random bytes.
func (s *FallbackSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < len(p); {
		v := s.rng.Uint64()
		for j := 0; j < 8 && i < len(p); j++ {
			p[i] = byte(v)
			v >>= 8
			i++
		}
	}
	return len(p), nil
}

// Secure returns false.
func (s *FallbackSource) Secure() bool { return false }

// DetectSource returns CryptoSource when crypto/rand works and a
// FallbackSource otherwise.
func DetectSource(logger *slog.Logger) Source {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return CryptoSource{}
	}
	return NewFallbackSource(0, logger)
}
