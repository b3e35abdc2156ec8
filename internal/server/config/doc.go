// Package config holds the refstate-server configuration.
//
// ServerConfig is filled by confloader from Default(), the YAML file and
// REFSTATE_* variables, then checked by Verify. Only the log level is
// applied again when the file changes; everything else needs a restart.
package config
