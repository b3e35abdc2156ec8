// Package logger configures log/slog for the refstate server and CLI.
//
// Every logger built by New shares one level so the config watcher can
// change it at runtime with SetLevel. Handlers mask client tokens and drop
// values logged under secret-looking keys such as salt_secret.
package logger
