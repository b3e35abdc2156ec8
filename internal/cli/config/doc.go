// Package config provides the refstate-cli configuration.
//
// The file lives at ~/.refstate/cli.yaml by default and is overridden by
// REFSTATE_CLI_* environment variables, then by command-line flags:
//
//	server: https://refs.example.com
//	secret: change-me
//	max_client_docs: 50
//	output: table
package config
