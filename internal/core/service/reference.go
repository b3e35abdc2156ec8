// Package service provides domain services for refstate.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/storage"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// ReferenceServiceConfig holds server-side reference limits.
type ReferenceServiceConfig struct {
	DefaultExpiry time.Duration // Applied when a request has no expiry
	MaxExpiry     time.Duration // Longer requests are clamped
	KeyLength     int           // Id length for KeyFormat; zero means the format default
	KeyFormat     refid.Format  // Default id format
	MaxDocuments  int           // Largest accepted identifier list
}

// DefaultReferenceServiceConfig returns the default server-side limits.
func DefaultReferenceServiceConfig() ReferenceServiceConfig {
	return ReferenceServiceConfig{
		DefaultExpiry: DefaultExpiry,
		MaxExpiry:     DefaultMaxExpiry,
		KeyFormat:     refid.FormatAlphanumeric,
		MaxDocuments:  DefaultMaxDocuments,
	}
}

// ReferenceService stores identifier lists behind generated reference ids.
type ReferenceService struct {
	store  storage.Store
	ids    *refid.Generator
	cfg    ReferenceServiceConfig
	logger *slog.Logger
}

// NewReferenceService creates a new ReferenceService.
func NewReferenceService(store storage.Store, ids *refid.Generator, cfg ReferenceServiceConfig, logger *slog.Logger) *ReferenceService {
	d := DefaultReferenceServiceConfig()
	if cfg.DefaultExpiry <= 0 {
		cfg.DefaultExpiry = d.DefaultExpiry
	}
	if cfg.MaxExpiry <= 0 {
		cfg.MaxExpiry = d.MaxExpiry
	}
	if cfg.KeyFormat == "" {
		cfg.KeyFormat = d.KeyFormat
	}
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = d.MaxDocuments
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReferenceService{
		store:  store,
		ids:    ids,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateReference validates req, generates a reference id and stores the list.
func (s *ReferenceService) CreateReference(ctx context.Context, req *CreateReferenceRequest) (*CreateReferenceResponse, error) {
	if req == nil || req.DocumentIDs == nil {
		return nil, domain.ErrInvalidDocuments.WithDetails("documentIds is required")
	}
	if len(req.DocumentIDs) == 0 {
		return nil, domain.ErrInvalidDocuments.WithDetails("documentIds must not be empty")
	}
	if len(req.DocumentIDs) > s.cfg.MaxDocuments {
		return nil, domain.ErrTooManyDocuments.WithDetails(fmt.Sprintf("limit is %d", s.cfg.MaxDocuments))
	}

	format := req.IDFormat
	if format == "" {
		format = s.cfg.KeyFormat
	}
	length := req.KeyLength
	if length <= 0 {
		length = s.cfg.KeyLength
		if length <= 0 || format != s.cfg.KeyFormat {
			length = refid.DefaultLength(format)
		}
	}

	useSalt := req.Salt != "" && s.ids.HasSecret()

	id, err := s.ids.Generate(length, format, useSalt)
	if err != nil {
		if errors.Is(err, refid.ErrUnknownFormat) || errors.Is(err, refid.ErrInvalidLength) {
			return nil, domain.ErrInvalidArgument.WithDetails(err.Error())
		}
		return nil, domain.ErrInternalServer.WithCause(err)
	}

	ttl := s.expiry(req.ExpireIn)
	rec := domain.NewReferenceRecord(req.DocumentIDs, req.Name, useSalt)
	if err := s.store.Set(ctx, id, rec, ttl); err != nil {
		return nil, domain.ErrStorage.WithCause(err)
	}

	s.logger.DebugContext(ctx, "reference created",
		"reference_id", id,
		"count", len(req.DocumentIDs),
		"ttl", ttl,
		"salted", useSalt)

	return &CreateReferenceResponse{
		ReferenceID: id,
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}

// GetReference fetches the reference stored under id.
func (s *ReferenceService) GetReference(ctx context.Context, id string) (*domain.ReferenceRecord, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("reference id is required")
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrReferenceNotFound.WithDetails(id)
		}
		return nil, domain.ErrStorage.WithCause(err)
	}
	return rec, nil
}

// DeleteReference removes the reference stored under id. Deleting an
// unknown id succeeds.
func (s *ReferenceService) DeleteReference(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument.WithDetails("reference id is required")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return domain.ErrStorage.WithCause(err)
	}

	s.logger.DebugContext(ctx, "reference deleted", "reference_id", id)
	return nil
}

// expiry applies the default and the maximum to a requested ttl.
func (s *ReferenceService) expiry(requested time.Duration) time.Duration {
	if requested <= 0 {
		return s.cfg.DefaultExpiry
	}
	if requested > s.cfg.MaxExpiry {
		return s.cfg.MaxExpiry
	}
	return requested
}

var _ Backend = (*ReferenceService)(nil)
