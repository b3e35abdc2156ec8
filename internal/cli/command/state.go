// Package command provides the refstate-cli commands.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/refstate-go/internal/pagestate"
)

// LinkCommand returns the link command.
func LinkCommand() *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Print a shareable URL for a token (default: the saved one)",
		ArgsUsage: "[TOKEN]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base",
				Aliases: []string{"b"},
				Usage:   "Base URL of the link (default: the configured location)",
			},
		},
		Action: linkToken,
	}
}

func linkToken(c *cli.Context) error {
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

	base := c.String("base")
	if base == "" {
		base = env.Config.Location
	}
	link, err := pagestate.ShareURL(base, token)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Out, link)
	return nil
}

// LoadCommand returns the load command.
func LoadCommand() *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Print the current token, optionally opening a shared URL first",
		ArgsUsage: "[URL]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the token found in URL as the current state",
			},
		},
		Action: loadToken,
	}
}

func loadToken(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	page, err := env.Page()
	if err != nil {
		return err
	}
	if loc := c.Args().First(); loc != "" {
		if err := page.Navigate(loc); err != nil {
			return err
		}
	}

	token := page.Load()
	if token == "" {
		return fmt.Errorf("no token found")
	}
	if c.Bool("save") {
		if err := page.Save(token); err != nil {
			return err
		}
	}
	fmt.Fprintln(env.Out, token)
	return nil
}

// ClearCommand returns the clear command.
func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:   "clear",
		Usage:  "Forget the saved token",
		Action: clearToken,
	}
}

func clearToken(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	page, err := env.Page()
	if err != nil {
		return err
	}
	if err := page.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Saved token cleared")
	return nil
}
