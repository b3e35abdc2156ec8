package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" {
		t.Error("empty context should have no request id")
	}

	ctx = WithRequestID(ctx, "01HZX")
	if got := RequestIDFromContext(ctx); got != "01HZX" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
}

func TestL(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		ctx  context.Context
		want any
	}{
		{"with id", WithRequestID(context.Background(), "req-42"), "req-42"},
		{"without id", context.Background(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			L(tt.ctx, base).Info("handled")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("parse log: %v", err)
			}
			if entry["request_id"] != tt.want {
				t.Errorf("request_id = %v, want %v", entry["request_id"], tt.want)
			}
		})
	}

	if L(context.Background(), nil) != slog.Default() {
		t.Error("nil base should fall back to slog.Default()")
	}
}
