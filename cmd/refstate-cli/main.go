// Package main provides the entry point for refstate-cli.
//
// refstate-cli creates and resolves reference-state tokens, talks to a
// refstate-server for long lists and keeps the current token between
// invocations.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/refstate-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "refstate-cli:", err)
		os.Exit(1)
	}
}
