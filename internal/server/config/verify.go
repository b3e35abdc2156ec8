// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/refstate-go/internal/server/httpserver"
	"github.com/yndnr/refstate-go/internal/storage"
	"github.com/yndnr/refstate-go/internal/telemetry/logger"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyReference(&cfg.Reference); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}
	if !strings.HasPrefix(cfg.HTTP.BasePath, "/") {
		return errors.New("server.http.base_path must start with /")
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if _, err := httpserver.ParseTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return fmt.Errorf("server.http.trusted_proxies: %w", err)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case storage.EngineMemory:
		return nil
	case storage.EngineBadger:
	default:
		return fmt.Errorf("storage.engine %q is not supported", cfg.Engine)
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required for the badger engine")
	}

	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}

	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}

	return nil
}

func verifyReference(cfg *ReferenceSection) error {
	if _, err := refid.ParseFormat(cfg.KeyFormat); err != nil {
		return fmt.Errorf("reference.key_format: %w", err)
	}
	if cfg.KeyLength < 0 || cfg.KeyLength > refid.MaxLength {
		return fmt.Errorf("reference.key_length must be between 1 and %d", refid.MaxLength)
	}
	if cfg.DefaultExpiry <= 0 {
		return errors.New("reference.default_expiry must be positive")
	}
	if cfg.MaxExpiry < cfg.DefaultExpiry {
		return errors.New("reference.max_expiry must not be less than default_expiry")
	}
	if cfg.MaxDocuments < 1 {
		return errors.New("reference.max_documents must be at least 1")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format %q is not supported", cfg.Format)
	}
}
