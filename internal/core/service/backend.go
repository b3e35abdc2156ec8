// Package service provides domain services for refstate.
package service

import (
	"context"
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// Backend runs the server path of the codec.
//
// GetReference must return an error matching domain.ErrReferenceNotFound
// for absent or expired references; any other error is treated as a
// transport failure.
type Backend interface {
	// CreateReference stores an identifier list and returns its id.
	CreateReference(ctx context.Context, req *CreateReferenceRequest) (*CreateReferenceResponse, error)

	// GetReference fetches a stored reference by id.
	GetReference(ctx context.Context, id string) (*domain.ReferenceRecord, error)
}

// CreateReferenceRequest contains parameters for reference creation.
type CreateReferenceRequest struct {
	DocumentIDs []string      // Required, non-empty
	Name        string        // Optional label
	Salt        string        // Optional; non-empty requests a salted id
	ExpireIn    time.Duration // Optional, defaults to server config
	IDFormat    refid.Format  // Optional, defaults to server config
	KeyLength   int           // Optional, defaults to the format's length
}

// CreateReferenceResponse contains the result of reference creation.
type CreateReferenceResponse struct {
	ReferenceID string // The generated reference id
	ExpiresAt   int64  // Expiration timestamp (Unix MS)
}
