// Package confloader loads and watches refstate configuration files.
//
// A Loader merges, lowest priority first:
//
//  1. values already set in the target struct
//  2. the YAML config file
//  3. environment variables (REFSTATE_ prefix, "__" between sections)
//  4. dotted-key overrides, usually from command line flags
//
// A Watcher reports writes to individual files so that the server can
// reload its log level and TLS certificate without a restart.
package confloader
