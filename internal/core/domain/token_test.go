// Package domain defines the core domain models for refstate.
package domain

import "testing"

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		path    Path
		payload string
		legacy  bool
	}{
		{"server", "s:abc123", PathServer, "abc123", false},
		{"client", "c:Zm9v", PathClient, "Zm9v", false},
		{"legacy", "Zm9v", PathClient, "Zm9v", true},
		{"server empty payload", "s:", PathServer, "", false},
		{"uppercase marker is legacy", "S:abc", PathClient, "S:abc", true},
		{"empty", "", PathClient, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := ParseToken(tt.in)
			if tok.Path != tt.path {
				t.Errorf("Path = %q, want %q", tok.Path, tt.path)
			}
			if tok.Payload != tt.payload {
				t.Errorf("Payload = %q, want %q", tok.Payload, tt.payload)
			}
			if tok.Legacy != tt.legacy {
				t.Errorf("Legacy = %v, want %v", tok.Legacy, tt.legacy)
			}
		})
	}
}

func TestToken_String(t *testing.T) {
	if got := ParseToken("s:id").String(); got != "s:id" {
		t.Errorf("server String() = %q", got)
	}
	if got := ParseToken("payload").String(); got != "c:payload" {
		t.Errorf("legacy String() = %q, want c:payload", got)
	}
	if ClientToken("x") != "c:x" || ServerToken("y") != "s:y" {
		t.Error("token framing helpers produced wrong markers")
	}
}
