// Package config provides the refstate-cli configuration.
package config

import (
	"time"

	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/internal/pagestate"
	"github.com/yndnr/refstate-go/pkg/crypto/adaptive"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// CLIConfig is the configuration for refstate-cli.
type CLIConfig struct {
	// Server is the refstate-server address. Empty disables the server path.
	Server   string `koanf:"server" yaml:"server"`
	BasePath string `koanf:"base_path" yaml:"base_path,omitempty"`

	// Secret keys client-path tokens. Every party sharing tokens must use
	// the same secret and cipher.
	Secret string `koanf:"secret" yaml:"secret"`
	Cipher string `koanf:"cipher" yaml:"cipher,omitempty"`

	MaxClientDocs int           `koanf:"max_client_docs" yaml:"max_client_docs,omitempty"`
	KeyLength     int           `koanf:"key_length" yaml:"key_length,omitempty"`
	KeyFormat     string        `koanf:"key_format" yaml:"key_format,omitempty"`
	DefaultExpiry time.Duration `koanf:"default_expiry" yaml:"default_expiry,omitempty"`

	Timeout            time.Duration `koanf:"timeout" yaml:"timeout,omitempty"`
	CAFile             string        `koanf:"ca_file" yaml:"ca_file,omitempty"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`

	// Output is table, json or yaml.
	Output string `koanf:"output" yaml:"output,omitempty"`

	// StateFile holds the saved current token.
	StateFile string `koanf:"state_file" yaml:"state_file,omitempty"`

	// Location is the page URL whose state the CLI manages.
	Location string `koanf:"location" yaml:"location,omitempty"`

	Debug bool `koanf:"debug" yaml:"debug,omitempty"`
}

// Defaults.
const (
	DefaultServer   = "http://localhost:5080"
	DefaultOutput   = "table"
	DefaultLocation = "refstate://local/"
	DefaultTimeout  = 10 * time.Second
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:        DefaultServer,
		Cipher:        string(adaptive.CipherAESGCM),
		MaxClientDocs: service.DefaultMaxClientDocs,
		KeyFormat:     string(refid.FormatAlphanumeric),
		DefaultExpiry: service.DefaultExpiry,
		Timeout:       DefaultTimeout,
		Output:        DefaultOutput,
		StateFile:     pagestate.DefaultStatePath(),
		Location:      DefaultLocation,
	}
}

// ManagerConfig converts the CLI configuration to codec settings.
func (c *CLIConfig) ManagerConfig() (service.Config, error) {
	format, err := refid.ParseFormat(c.KeyFormat)
	if err != nil {
		return service.Config{}, err
	}

	cfg := service.Config{
		MaxClientDocs: c.MaxClientDocs,
		KeyLength:     c.KeyLength,
		KeyFormat:     format,
		Secret:        c.Secret,
		DefaultExpiry: c.DefaultExpiry,
		Endpoint:      c.Server,
		Debug:         c.Debug,
		Cipher:        adaptive.CipherType(c.Cipher),
	}
	return cfg, cfg.Validate()
}
