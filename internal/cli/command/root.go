// Package command provides the refstate-cli commands.
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/refstate-go/internal/cli/config"
	"github.com/yndnr/refstate-go/internal/cli/output"
	"github.com/yndnr/refstate-go/internal/client/refclient"
	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/internal/infra/buildinfo"
	"github.com/yndnr/refstate-go/internal/infra/tlsroots"
	"github.com/yndnr/refstate-go/internal/pagestate"
	"github.com/yndnr/refstate-go/internal/telemetry/logger"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "refstate-cli",
		Usage:    "Create, resolve and share reference-state tokens",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			CreateCommand(),
			ResolveCommand(),
			GetCommand(),
			DeleteCommand(),
			LinkCommand(),
			LoadCommand(),
			ClearCommand(),
			GenIDCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			env, err := newEnv(c)
			if err != nil {
				return err
			}
			c.App.Metadata[envKey] = env
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "refstate-server address (e.g., localhost:5080); empty keeps tokens client-only",
		},
		&cli.StringFlag{
			Name:  "base-path",
			Usage: "Reference endpoint base path",
		},
		&cli.StringFlag{
			Name:    "secret",
			Usage:   "Secret for client-path tokens",
			EnvVars: []string{"REFSTATE_SECRET"},
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "Extra CA bundle for HTTPS servers",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "state-file",
			Usage: "File holding the saved token",
		},
		&cli.StringFlag{
			Name:  "location",
			Usage: "Page URL whose state is managed",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"V"},
			Usage:   "Log codec decisions to stderr",
		},
	}
}

// Env is the per-invocation state shared by commands.
type Env struct {
	Config *config.CLIConfig
	Format output.Format
	Out    io.Writer
	Err    io.Writer
	Logger *slog.Logger
}

// newEnv loads the config file and applies explicitly set flags over it.
func newEnv(c *cli.Context) (*Env, error) {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if cfg.Debug {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "text", Output: c.App.ErrWriter})
	if err != nil {
		return nil, err
	}

	return &Env{
		Config: cfg,
		Format: format,
		Out:    c.App.Writer,
		Err:    c.App.ErrWriter,
		Logger: log,
	}, nil
}

// flagConfigKeys maps global flags to CLIConfig keys.
var flagConfigKeys = map[string]string{
	"server":     "server",
	"base-path":  "base_path",
	"secret":     "secret",
	"ca-file":    "ca_file",
	"insecure":   "insecure_skip_verify",
	"output":     "output",
	"state-file": "state_file",
	"location":   "location",
	"debug":      "debug",
}

// flagOverrides returns the explicitly set global flags as config values.
func flagOverrides(c *cli.Context) map[string]any {
	values := make(map[string]any)
	for flag, key := range flagConfigKeys {
		if c.IsSet(flag) {
			values[key] = c.Value(flag)
		}
	}
	return values
}

// GetEnv retrieves the environment prepared by App.Before.
func GetEnv(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("command environment not initialized")
}

// Print writes data in the selected output format.
func (e *Env) Print(data any) error {
	return output.NewFormatter(e.Format).Format(e.Out, data)
}

// Client returns a client for the configured server.
func (e *Env) Client() (*refclient.Client, error) {
	if e.Config.Server == "" {
		return nil, fmt.Errorf("no server configured (use --server)")
	}

	opts := []refclient.Option{}
	if e.Config.CAFile != "" || e.Config.InsecureSkipVerify {
		tlsCfg, err := tlsroots.ClientConfig(e.Config.CAFile, e.Config.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		opts = append(opts, refclient.WithTLSConfig(tlsCfg))
	}
	if e.Config.Timeout > 0 {
		opts = append(opts, refclient.WithTimeout(e.Config.Timeout))
	}
	if e.Config.BasePath != "" {
		opts = append(opts, refclient.WithBasePath(e.Config.BasePath))
	}
	opts = append(opts, refclient.WithUserAgent("refstate-cli/"+buildinfo.Version))
	return refclient.New(e.Config.Server, opts...), nil
}

// Manager returns a codec backed by the configured server, if any.
// Raised conditions are reported on stderr.
func (e *Env) Manager() (*service.Manager, error) {
	cfg, err := e.Config.ManagerConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []service.ManagerOption{
		service.WithLogger(e.Logger),
		service.WithObserver(func(_ context.Context, err *domain.DomainError) {
			fmt.Fprintf(e.Err, "warning: %s\n", err.Error())
		}),
	}
	if e.Config.Server != "" {
		client, err := e.Client()
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithBackend(client))
	}
	return service.NewManager(cfg, opts...)
}

// Page returns the saved page state.
func (e *Env) Page() (*pagestate.Page, error) {
	return pagestate.NewPage(e.Config.Location, pagestate.NewFileSlot(e.Config.StateFile))
}
