// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for refstate-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	Reference ReferenceSection `koanf:"reference"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr     string `koanf:"addr"`
	BasePath string `koanf:"base_path"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables limiting. Burst is twice the rate.
	RateLimit float64 `koanf:"rate_limit"`

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty trusts none.
	TrustedProxies []string `koanf:"trusted_proxies"`

	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
}

// StorageSection configures the reference store.
type StorageSection struct {
	// Engine is "memory" or "badger".
	Engine  string `koanf:"engine"`
	DataDir string `koanf:"data_dir"`

	// GCInterval is the badger value log GC period.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ReferenceSection configures server-side references.
type ReferenceSection struct {
	DefaultExpiry time.Duration `koanf:"default_expiry"`
	MaxExpiry     time.Duration `koanf:"max_expiry"`

	// KeyLength of zero selects the default for KeyFormat.
	KeyLength int    `koanf:"key_length"`
	KeyFormat string `koanf:"key_format"`

	// SaltSecret enables salted reference ids when a request carries a salt.
	SaltSecret string `koanf:"salt_secret"`

	MaxDocuments int `koanf:"max_documents"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
