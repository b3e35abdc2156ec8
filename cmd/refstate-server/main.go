// Package main provides the entry point for refstate-server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/internal/infra/buildinfo"
	"github.com/yndnr/refstate-go/internal/infra/confloader"
	"github.com/yndnr/refstate-go/internal/infra/shutdown"
	"github.com/yndnr/refstate-go/internal/infra/tlsroots"
	"github.com/yndnr/refstate-go/internal/server/config"
	"github.com/yndnr/refstate-go/internal/server/httpserver"
	"github.com/yndnr/refstate-go/internal/server/httpserver/handler"
	"github.com/yndnr/refstate-go/internal/storage"
	"github.com/yndnr/refstate-go/internal/storage/memory"
	"github.com/yndnr/refstate-go/internal/telemetry/logger"
	"github.com/yndnr/refstate-go/internal/telemetry/metric"
	"github.com/yndnr/refstate-go/pkg/refid"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("refstate-server " + buildinfo.String())
		return nil
	}

	cfg, loader, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	log.Info("starting refstate-server",
		"build", buildinfo.Get(),
		"config", cfg)

	reg := metric.NewRegistry()

	engine, err := openEngine(cfg, reg, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := reg.RegisterStoredGauge(engine.Len); err != nil {
		engine.Close()
		return fmt.Errorf("register metrics: %w", err)
	}

	refs := newReferenceService(cfg, engine, log)

	trusted, err := httpserver.ParseTrustedProxies(cfg.Server.HTTP.TrustedProxies)
	if err != nil {
		engine.Close()
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		References:         refs,
		Logger:             log,
		BasePath:           cfg.Server.HTTP.BasePath,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSOrigins,
		RateLimit:          cfg.Server.HTTP.RateLimit,
		TrustedProxies:     trusted,
		Metrics:            reg,
		ReadyChecks: map[string]handler.ReadyCheck{
			"storage": func(ctx context.Context) error {
				_, err := engine.Has(ctx, "ready-check")
				return err
			},
		},
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		engine.Close()
		return fmt.Errorf("init watcher: %w", err)
	}
	if loader.FilePath() != "" {
		if err := watcher.Watch(loader.FilePath()); err != nil {
			log.Warn("config file will not be watched", "error", err)
		}
		watcher.OnChange(config.ReloadLogLevel(loader, log))
	}

	var certs *tlsroots.CertReloader
	if cfg.Server.HTTP.TLSCertFile != "" {
		certs, err = tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			watcher.Stop()
			engine.Close()
			return fmt.Errorf("init tls: %w", err)
		}
		if err := certs.Watch(watcher); err != nil {
			log.Warn("certificate files will not be watched", "error", err)
		}
		httpServer.SetTLSConfig(tlsroots.ServerConfig(certs))
	}
	watcher.StartAsync()

	// Hooks run in reverse registration order.
	sd := shutdown.NewHandler(shutdownTimeout, log)
	sd.OnShutdown("storage", func(context.Context) error {
		log.Info("closing storage engine")
		return engine.Close()
	})
	sd.OnShutdown("watcher", func(context.Context) error {
		if certs != nil {
			certs.Stop()
		}
		return watcher.Stop()
	})
	sd.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", cfg.Server.HTTP.Addr,
			"base_path", cfg.Server.HTTP.BasePath,
			"tls", httpServer.TLS())

		if err := httpServer.Start(); err != nil {
			log.Error("HTTP server error", "error", err)
			sd.Trigger()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := sd.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// openEngine opens the configured storage engine.
func openEngine(cfg *config.ServerConfig, reg *metric.Registry, log *slog.Logger) (storage.Engine, error) {
	switch cfg.Storage.Engine {
	case storage.EngineBadger:
		bcfg := storage.DefaultBadgerConfig(cfg.Storage.DataDir)
		if cfg.Storage.GCInterval > 0 {
			bcfg.GCInterval = cfg.Storage.GCInterval
		}
		store, err := storage.NewBadgerStore(bcfg, log)
		if err != nil {
			return nil, err
		}
		if err := store.RegisterMetrics(reg.Registerer()); err != nil {
			store.Close()
			return nil, err
		}
		log.Info("storage engine ready", "engine", storage.EngineBadger, "dir", cfg.Storage.DataDir)
		return store, nil

	case storage.EngineMemory, "":
		store := memory.New(
			memory.WithLogger(log),
			memory.WithEvictHook(func(string) { reg.ReferenceEvicted() }),
		)
		log.Info("storage engine ready", "engine", storage.EngineMemory)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
}

// newReferenceService builds the reference service from the reference section.
func newReferenceService(cfg *config.ServerConfig, store storage.Store, log *slog.Logger) *service.ReferenceService {
	opts := []refid.Option{refid.WithSource(refid.DetectSource(log))}
	if cfg.Reference.SaltSecret != "" {
		opts = append(opts, refid.WithSecret(cfg.Reference.SaltSecret))
	}

	// Verify already rejected unknown formats.
	format, _ := refid.ParseFormat(cfg.Reference.KeyFormat)

	return service.NewReferenceService(store, refid.New(opts...), service.ReferenceServiceConfig{
		DefaultExpiry: cfg.Reference.DefaultExpiry,
		MaxExpiry:     cfg.Reference.MaxExpiry,
		KeyLength:     cfg.Reference.KeyLength,
		KeyFormat:     format,
		MaxDocuments:  cfg.Reference.MaxDocuments,
	}, log)
}
