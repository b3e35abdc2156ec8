// Package command provides the refstate-cli commands.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/refstate-go/internal/infra/buildinfo"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// GenIDCommand returns the gen-id command.
func GenIDCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-id",
		Usage: "Generate reference ids locally",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "length",
				Aliases: []string{"l"},
				Usage:   "Id length (default depends on format)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: string(refid.FormatAlphanumeric),
				Usage: "Id format: alphanumeric, hex, base64url",
			},
			&cli.StringFlag{
				Name:  "salt-secret",
				Usage: "Mix a secret into the random source",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Value:   1,
				Usage:   "Number of ids",
			},
		},
		Action: genID,
	}
}

func genID(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	format, err := refid.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	length := c.Int("length")
	if length == 0 {
		length = refid.DefaultLength(format)
	}
	if c.Int("count") < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	secret := c.String("salt-secret")
	gen := refid.New(refid.WithSecret(secret), refid.WithSource(refid.DetectSource(env.Logger)))
	for i := 0; i < c.Int("count"); i++ {
		id, err := gen.Generate(length, format, secret != "")
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Out, id)
	}
	return nil
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			env, err := GetEnv(c)
			if err != nil {
				return err
			}
			return env.Print(buildinfo.Get())
		},
	}
}
