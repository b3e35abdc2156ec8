// Package command provides the refstate-cli commands.
package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/refstate-go/internal/cli/output"
	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/pkg/refid"
)

const requestTimeout = 30 * time.Second

// CreateCommand returns the create command.
func CreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a token for a list of identifiers",
		ArgsUsage: "[ID...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read identifiers from a file, one per line (- for stdin)",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Label stored with the reference",
			},
			&cli.StringFlag{
				Name:  "salt",
				Usage: "Salt for the client key and salted server ids",
			},
			&cli.DurationFlag{
				Name:    "expire",
				Aliases: []string{"t"},
				Usage:   "Server reference lifetime (e.g., 24h)",
			},
			&cli.StringFlag{
				Name:  "id-format",
				Usage: "Server reference id format: alphanumeric, hex, base64url",
			},
			&cli.BoolFlag{
				Name:  "no-server",
				Usage: "Always produce a client token",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the token as the current page state",
			},
		},
		Action: createToken,
	}
}

// CreateResult is the output of create.
type CreateResult struct {
	Token string      `json:"token" yaml:"token"`
	Path  domain.Path `json:"path" yaml:"path"`
	Count int         `json:"count" yaml:"count"`
	URL   string      `json:"url,omitempty" yaml:"url,omitempty"`
}

func createToken(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	ids, err := readIDs(c)
	if err != nil {
		return err
	}

	opts := service.CreateOptions{
		Salt:     c.String("salt"),
		Name:     c.String("name"),
		ExpireIn: c.Duration("expire"),
	}
	if c.Bool("no-server") {
		opts.ServerSync = service.Bool(false)
	}
	if c.IsSet("id-format") {
		format, err := refid.ParseFormat(c.String("id-format"))
		if err != nil {
			return err
		}
		opts.IDFormat = format
	}

	mgr, err := env.Manager()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	token, err := mgr.Create(ctx, ids, opts)
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}

	result := &CreateResult{
		Token: token,
		Path:  domain.ParseToken(token).Path,
		Count: len(ids),
	}
	if c.Bool("save") {
		page, err := env.Page()
		if err != nil {
			return err
		}
		if err := page.Save(token); err != nil {
			return err
		}
		result.URL = page.URL()
	}
	return env.Print(result)
}

// readIDs collects identifiers from arguments and --file.
func readIDs(c *cli.Context) ([]string, error) {
	ids := append([]string{}, c.Args().Slice()...)

	file := c.String("file")
	if file == "" {
		return ids, nil
	}

	var r io.Reader
	if file == "-" {
		r = c.App.Reader
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open id file: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read id file: %w", err)
	}
	return ids, nil
}

// ResolveCommand returns the resolve command.
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a token (default: the saved one) to its identifiers",
		ArgsUsage: "[TOKEN]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "salt",
				Usage: "Salt used when the token was created",
			},
		},
		Action: resolveToken,
	}
}

// ResolveResult is the output of resolve.
type ResolveResult struct {
	Path      domain.Path `json:"path" yaml:"path"`
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	Count     int         `json:"count" yaml:"count"`
	CreatedAt string      `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	ExpiresAt string      `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	IDs       []string    `json:"documentIds" yaml:"documentIds"`
}

// Table lists the metadata followed by one row per identifier.
func (r *ResolveResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("path", string(r.Path))
	if r.Name != "" {
		t.AddRow("name", r.Name)
	}
	t.AddRow("count", fmt.Sprint(r.Count))
	if r.CreatedAt != "" {
		t.AddRow("createdAt", r.CreatedAt)
	}
	if r.ExpiresAt != "" {
		t.AddRow("expiresAt", r.ExpiresAt)
	}
	for _, id := range r.IDs {
		t.AddRow("id", id)
	}
	return t
}

func resolveToken(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	token := c.Args().First()
	if token == "" {
		page, err := env.Page()
		if err != nil {
			return err
		}
		if token = page.Load(); token == "" {
			return fmt.Errorf("no token given and none saved")
		}
	}

	mgr, err := env.Manager()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	r, err := mgr.ResolveState(ctx, token, c.String("salt"))
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}

	return env.Print(&ResolveResult{
		Path:      r.Path,
		Name:      r.Name,
		Count:     len(r.IDs),
		CreatedAt: formatMillis(r.CreatedAt),
		ExpiresAt: formatMillis(r.ExpiresAt),
		IDs:       r.IDs,
	})
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a server reference by id",
		ArgsUsage: "REFERENCE_ID",
		Action:    getReference,
	}
}

// ReferenceResult is the output of get.
type ReferenceResult struct {
	ID        string   `json:"referenceId" yaml:"referenceId"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	CreatedAt string   `json:"createdAt" yaml:"createdAt"`
	ExpiresAt string   `json:"expiresAt" yaml:"expiresAt"`
	IDs       []string `json:"documentIds" yaml:"documentIds"`
}

func getReference(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	id, err := referenceArg(c)
	if err != nil {
		return err
	}
	client, err := env.Client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	rec, err := client.GetReference(ctx, id)
	if err != nil {
		return fmt.Errorf("get reference: %w", err)
	}

	return env.Print(&ReferenceResult{
		ID:        id,
		Name:      rec.Name,
		CreatedAt: formatMillis(rec.CreatedAt),
		ExpiresAt: formatMillis(rec.ExpiresAt),
		IDs:       rec.DocumentIDs,
	})
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a server reference",
		ArgsUsage: "REFERENCE_ID",
		Action:    deleteReference,
	}
}

func deleteReference(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	id, err := referenceArg(c)
	if err != nil {
		return err
	}
	client, err := env.Client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	if err := client.DeleteReference(ctx, id); err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	fmt.Fprintf(env.Out, "Reference %s deleted\n", id)
	return nil
}

// referenceArg accepts a bare id or an s: token.
func referenceArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one reference id")
	}
	arg := c.Args().First()
	if tok := domain.ParseToken(arg); tok.Path == domain.PathServer {
		return tok.Payload, nil
	}
	return arg, nil
}

// formatMillis renders Unix milliseconds as RFC 3339; zero renders empty.
func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
