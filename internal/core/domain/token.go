// Package domain defines the core domain models for refstate.
package domain

import "strings"

// Path identifies how a token resolves.
type Path string

const (
	// PathClient tokens carry the sealed identifier list.
	PathClient Path = "client"

	// PathServer tokens carry a reference id.
	PathServer Path = "server"
)

// Token markers.
const (
	ClientMarker = "c:"
	ServerMarker = "s:"
)

// Token is a parsed reference token.
type Token struct {
	// Path selects the resolution path.
	Path Path

	// Payload is the token without its marker.
	Payload string

	// Legacy is set for unmarked tokens, which resolve on the client path.
	Legacy bool
}

// ParseToken splits a token into path and payload.
//
// "s:" selects the server path and "c:" the client path. Any other string is
// a legacy client payload and is returned whole.
func ParseToken(s string) Token {
	switch {
	case strings.HasPrefix(s, ServerMarker):
		return Token{Path: PathServer, Payload: s[len(ServerMarker):]}
	case strings.HasPrefix(s, ClientMarker):
		return Token{Path: PathClient, Payload: s[len(ClientMarker):]}
	default:
		return Token{Path: PathClient, Payload: s, Legacy: true}
	}
}

// String renders the token with its marker. Legacy tokens gain a "c:" marker.
func (t Token) String() string {
	if t.Path == PathServer {
		return ServerMarker + t.Payload
	}
	return ClientMarker + t.Payload
}

// ClientToken frames a client payload.
func ClientToken(payload string) string {
	return ClientMarker + payload
}

// ServerToken frames a reference id.
func ServerToken(referenceID string) string {
	return ServerMarker + referenceID
}
