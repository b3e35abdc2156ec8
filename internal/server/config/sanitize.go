// Package config defines the server configuration structure.
package config

import (
	"log/slog"
	"strings"
)

// LogValue renders the config for logs with secrets masked.
func (c *ServerConfig) LogValue() slog.Value {
	h := c.Server.HTTP
	return slog.GroupValue(
		slog.Group("http",
			"addr", h.Addr,
			"base_path", h.BasePath,
			"cors_origins", h.CORSOrigins,
			"rate_limit", h.RateLimit,
			"trusted_proxies", h.TrustedProxies,
			"tls", h.TLSCertFile != "",
		),
		slog.Group("storage",
			"engine", c.Storage.Engine,
			"data_dir", c.Storage.DataDir,
			"gc_interval", c.Storage.GCInterval,
		),
		slog.Group("reference",
			"default_expiry", c.Reference.DefaultExpiry,
			"max_expiry", c.Reference.MaxExpiry,
			"key_format", c.Reference.KeyFormat,
			"key_length", c.Reference.KeyLength,
			"max_documents", c.Reference.MaxDocuments,
			"salt_secret", mask(c.Reference.SaltSecret),
		),
		slog.Group("log",
			"level", c.Log.Level,
			"format", c.Log.Format,
		),
	)
}

// mask keeps the first and last character of secrets longer than eight.
func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return strings.Repeat("*", len(s))
	default:
		return s[:1] + strings.Repeat("*", len(s)-2) + s[len(s)-1:]
	}
}
