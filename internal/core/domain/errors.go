// Package domain defines the core domain models for refstate.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a DomainError.
type Kind string

// Error kinds.
const (
	KindNetwork    Kind = "NETWORK"
	KindEncryption Kind = "ENCRYPTION"
	KindDecryption Kind = "DECRYPTION"
	KindNotFound   Kind = "NOT_FOUND"
	KindInvalid    Kind = "INVALID"
	KindServer     Kind = "SERVER"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form RS-<AREA>-<NNNN>; the last four digits follow the
// HTTP status the error maps to (4040 -> 404).
type DomainError struct {
	Code    string // Error code (e.g., "RS-REF-4040")
	Kind    Kind   // Taxonomy bucket
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError.
func NewDomainError(code string, kind Kind, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	de, ok := AsDomainError(err)
	if !ok {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	if de, ok := AsDomainError(err); ok {
		return de.Code
	}
	return ""
}

// KindOf returns the kind of err. Non-domain errors are KindServer.
func KindOf(err error) Kind {
	if de, ok := AsDomainError(err); ok {
		return de.Kind
	}
	return KindServer
}

// Reference errors.
var (
	// ErrReferenceNotFound indicates the reference id is unknown or expired.
	ErrReferenceNotFound = NewDomainError("RS-REF-4040", KindNotFound, "reference not found")

	// ErrInvalidDocuments indicates a missing, empty or malformed identifier list.
	ErrInvalidDocuments = NewDomainError("RS-ARG-4000", KindInvalid, "invalid document id list")

	// ErrInvalidArgument indicates any other malformed caller input.
	ErrInvalidArgument = NewDomainError("RS-ARG-4001", KindInvalid, "invalid argument")

	// ErrTooManyDocuments indicates the list exceeds the server limit.
	ErrTooManyDocuments = NewDomainError("RS-ARG-4002", KindInvalid, "too many document ids")
)

// Transport and crypto errors.
var (
	// ErrNetwork indicates the server path could not be reached or failed.
	ErrNetwork = NewDomainError("RS-NET-5020", KindNetwork, "reference server unavailable")

	// ErrEncryption indicates the client token could not be sealed.
	ErrEncryption = NewDomainError("RS-CRYP-5001", KindEncryption, "encryption failed")

	// ErrDecryption indicates the client token could not be opened or parsed.
	ErrDecryption = NewDomainError("RS-CRYP-4001", KindDecryption, "decryption failed")
)

// System errors.
var (
	// ErrInternalServer indicates an unexpected server-side failure.
	ErrInternalServer = NewDomainError("RS-SYS-5000", KindServer, "internal server error")

	// ErrStorage indicates a storage layer error.
	ErrStorage = NewDomainError("RS-SYS-5001", KindServer, "storage error")

	// ErrBadRequest indicates a malformed request body.
	ErrBadRequest = NewDomainError("RS-SYS-4000", KindInvalid, "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("RS-SYS-4290", KindInvalid, "too many requests")
)
