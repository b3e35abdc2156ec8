// Package config defines the server configuration structure.
package config

import (
	"time"

	"github.com/yndnr/refstate-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHTTPAddr  = "127.0.0.1:5080"
	DefaultBasePath  = "/api/ref-state"
	DefaultRateLimit = 100

	DefaultEngine     = storage.EngineMemory
	DefaultDataDir    = "/var/lib/refstate-server/data"
	DefaultGCInterval = 10 * time.Minute

	DefaultExpiry       = 7 * 24 * time.Hour
	DefaultMaxExpiry    = 30 * 24 * time.Hour
	DefaultKeyFormat    = "alphanumeric"
	DefaultMaxDocuments = 10000

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:        DefaultHTTPAddr,
				BasePath:    DefaultBasePath,
				CORSOrigins: []string{"*"},
				RateLimit:   DefaultRateLimit,
			},
		},
		Storage: StorageSection{
			Engine:     DefaultEngine,
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
		},
		Reference: ReferenceSection{
			DefaultExpiry: DefaultExpiry,
			MaxExpiry:     DefaultMaxExpiry,
			KeyFormat:     DefaultKeyFormat,
			MaxDocuments:  DefaultMaxDocuments,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
