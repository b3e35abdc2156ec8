// Package refstatev1 defines the JSON wire contract of the refstate HTTP API.
package refstatev1

import "time"

// CodeOK is the envelope code of successful responses.
const CodeOK = "OK"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// CreateReferenceRequest is the request body for POST {base}.
type CreateReferenceRequest struct {
	DocumentIDs []string `json:"documentIds"`
	Salt        string   `json:"salt,omitempty"`
	Name        string   `json:"name,omitempty"`
	ExpireIn    int64    `json:"expireIn,omitempty"` // Milliseconds
	IDFormat    string   `json:"idFormat,omitempty"`
	KeyLength   int      `json:"keyLength,omitempty"`
}

// CreateReferenceResponse is the response body for POST {base}.
type CreateReferenceResponse struct {
	ReferenceID string `json:"referenceId"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// ReferenceResponse is the response body for GET {base}/{id}.
type ReferenceResponse struct {
	DocumentIDs []string `json:"documentIds"`
	Name        string   `json:"name"`
	CreatedAt   int64    `json:"createdAt"`
	ExpiresAt   int64    `json:"expiresAt"`
}

// DeleteReferenceResponse is the response body for DELETE {base}/{id}.
type DeleteReferenceResponse struct {
	ReferenceID string `json:"referenceId"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Uptime  int64             `json:"uptime_seconds,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
