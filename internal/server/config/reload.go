// Package config defines the server configuration structure.
package config

import (
	"log/slog"
	"path/filepath"

	"github.com/yndnr/refstate-go/internal/infra/confloader"
	"github.com/yndnr/refstate-go/internal/telemetry/logger"
)

// Load reads the config file (optional) and environment over Default().
func Load(path string) (*ServerConfig, *confloader.Loader, error) {
	cfg := Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

// ReloadLogLevel returns a watcher callback that re-reads the configuration
// and applies log.level. Other settings require a restart. Events for
// files other than the loader's config file are ignored.
func ReloadLogLevel(loader *confloader.Loader, log *slog.Logger) func(string) {
	return func(path string) {
		if filepath.Clean(path) != filepath.Clean(loader.FilePath()) {
			return
		}
		cfg := Default()
		if err := loader.Reload(cfg); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("invalid log level in reloaded config", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	}
}
