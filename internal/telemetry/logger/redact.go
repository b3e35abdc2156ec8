// Package logger provides structured logging for refstate.
package logger

import (
	"log/slog"
	"strings"
)

const redacted = "***REDACTED***"

// Client tokens carry the sealed id list. Values with this prefix and at
// least tokenMinLen bytes are shortened to a recognizable stub.
const (
	tokenPrefix = "c:"
	tokenMinLen = 16
)

// secretKeyParts mark attribute keys whose string values are dropped.
var secretKeyParts = []string{"secret", "salt", "password", "credential", "bearer", "authorization"}

// redactAttr is the ReplaceAttr hook installed by New.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	switch {
	case isClientToken(v):
		return slog.String(a.Key, stubToken(v))
	case v != "" && secretKey(a.Key):
		return slog.String(a.Key, redacted)
	}
	return a
}

func isClientToken(v string) bool {
	return len(v) >= tokenMinLen && strings.HasPrefix(v, tokenPrefix)
}

// stubToken keeps the prefix and three bytes from each end of the payload.
func stubToken(v string) string {
	body := v[len(tokenPrefix):]
	if len(body) <= 6 {
		return tokenPrefix + "***"
	}
	return tokenPrefix + body[:3] + "..." + body[len(body)-3:]
}

func secretKey(key string) bool {
	key = strings.ToLower(key)
	if key == "key" {
		return true
	}
	for _, part := range secretKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}
