// Package service provides domain services for refstate.
package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/pkg/crypto/adaptive"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// errNoBackend fails the server path when no Backend is configured.
var errNoBackend = errors.New("no reference backend configured")

// Manager converts identifier lists to reference tokens and back.
type Manager struct {
	cfg       Config
	backend   Backend
	logger    *slog.Logger
	recorder  Recorder
	observers observers
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithBackend sets the server-path backend.
func WithBackend(b Backend) ManagerOption {
	return func(m *Manager) {
		m.backend = b
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithObserver registers an error observer at construction.
func WithObserver(fn Observer) ManagerOption {
	return func(m *Manager) {
		m.observers.add(fn)
	}
}

// NewManager creates a Manager. Zero config fields take their defaults.
func NewManager(cfg Config, opts ...ManagerOption) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg.withDefaults(),
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Config returns a copy of the manager configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// OnError registers an observer for raised conditions.
func (m *Manager) OnError(fn Observer) {
	m.observers.add(fn)
}

// ============================================================================
// Create
// ============================================================================

// CreateOptions controls a single Create call.
type CreateOptions struct {
	// ServerSync allows the server path. Nil means enabled.
	ServerSync *bool

	// Salt is appended to the secret for client-path key derivation and,
	// when non-empty, requests a salted id on the server path.
	Salt string

	// Name is an optional label stored with the reference.
	Name string

	// ExpireIn overrides the default server-path expiry.
	ExpireIn time.Duration

	// IDFormat overrides the configured reference id format.
	IDFormat refid.Format
}

// Bool returns a pointer to b, for CreateOptions.ServerSync.
func Bool(b bool) *bool {
	return &b
}

// Create returns a token for ids.
//
// Lists longer than MaxClientDocs go to the server path when server sync
// is enabled. Any server-path failure falls back to the client path, so
// Create only fails when sealing the client token fails.
func (m *Manager) Create(ctx context.Context, ids []string, opts CreateOptions) (string, error) {
	if ids == nil {
		ids = []string{}
	}

	serverSync := opts.ServerSync == nil || *opts.ServerSync
	if serverSync && len(ids) > m.cfg.MaxClientDocs {
		token, err := m.createServer(ctx, ids, opts)
		if err == nil {
			m.recorder.ReferenceCreated(domain.PathServer)
			return token, nil
		}

		m.debug(ctx, "server path failed, falling back to client token",
			"count", len(ids),
			"error", err)
		m.recorder.ReferenceFallback()
	}

	token, err := m.createClient(ids, opts)
	if err != nil {
		return "", m.raise(ctx, domain.ErrEncryption.WithCause(err))
	}

	m.recorder.ReferenceCreated(domain.PathClient)
	return token, nil
}

func (m *Manager) createServer(ctx context.Context, ids []string, opts CreateOptions) (string, error) {
	if m.backend == nil {
		return "", errNoBackend
	}

	expireIn := opts.ExpireIn
	if expireIn <= 0 {
		expireIn = m.cfg.DefaultExpiry
	}
	format := opts.IDFormat
	if format == "" {
		format = m.cfg.KeyFormat
	}
	length := m.cfg.KeyLength
	if format != m.cfg.KeyFormat {
		length = refid.DefaultLength(format)
	}

	resp, err := m.backend.CreateReference(ctx, &CreateReferenceRequest{
		DocumentIDs: ids,
		Name:        opts.Name,
		Salt:        opts.Salt,
		ExpireIn:    expireIn,
		IDFormat:    format,
		KeyLength:   length,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.ReferenceID == "" {
		return "", errors.New("backend returned an empty reference id")
	}

	m.debug(ctx, "server reference created",
		"reference_id", resp.ReferenceID,
		"count", len(ids),
		"expires_at", resp.ExpiresAt)

	return domain.ServerToken(resp.ReferenceID), nil
}

func (m *Manager) createClient(ids []string, opts CreateOptions) (string, error) {
	state := domain.NewReferenceState(ids, opts.Name)

	plaintext, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}

	c, err := m.cipher(opts.Salt)
	if err != nil {
		return "", err
	}

	sealed, err := c.Encrypt(plaintext, nil)
	if err != nil {
		return "", fmt.Errorf("seal state: %w", err)
	}

	payload := url.QueryEscape(base64.RawURLEncoding.EncodeToString(sealed))
	return domain.ClientToken(payload), nil
}

func (m *Manager) cipher(salt string) (adaptive.Cipher, error) {
	key, err := adaptive.DeriveKey(m.cfg.Secret, salt)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return adaptive.NewWithType(key, m.cfg.Cipher)
}

// ============================================================================
// Resolve
// ============================================================================

// Resolved is the full view of a resolved token.
type Resolved struct {
	IDs       []string
	Name      string
	CreatedAt int64 // Unix MS
	ExpiresAt int64 // Unix MS, zero for client tokens
	Path      domain.Path
}

// Resolve returns the identifier list behind token.
//
// An empty token resolves to an empty list. A client token that cannot be
// opened raises a DECRYPTION condition and resolves to an empty list. On the
// server path NOT_FOUND and NETWORK conditions are returned as errors.
func (m *Manager) Resolve(ctx context.Context, token, salt string) ([]string, error) {
	r, err := m.ResolveState(ctx, token, salt)
	if err != nil {
		return nil, err
	}
	return r.IDs, nil
}

// ResolveState is Resolve returning name and timestamps as well.
func (m *Manager) ResolveState(ctx context.Context, token, salt string) (*Resolved, error) {
	if token == "" {
		m.recorder.ReferenceResolved(domain.PathClient, ResultEmpty)
		return &Resolved{IDs: []string{}, Path: domain.PathClient}, nil
	}

	tok := domain.ParseToken(token)
	if tok.Path == domain.PathServer {
		return m.resolveServer(ctx, tok.Payload)
	}

	if tok.Legacy {
		m.debug(ctx, "resolving unmarked token as client payload")
	}
	return m.resolveClient(ctx, tok.Payload, salt), nil
}

func (m *Manager) resolveServer(ctx context.Context, id string) (*Resolved, error) {
	if id == "" {
		m.recorder.ReferenceResolved(domain.PathServer, ResultNotFound)
		return nil, m.raise(ctx, domain.ErrReferenceNotFound.WithDetails("empty reference id"))
	}
	if m.backend == nil {
		m.recorder.ReferenceResolved(domain.PathServer, ResultFailed)
		return nil, m.raise(ctx, domain.ErrNetwork.WithCause(errNoBackend))
	}

	rec, err := m.backend.GetReference(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrReferenceNotFound) {
			m.recorder.ReferenceResolved(domain.PathServer, ResultNotFound)
			return nil, m.raise(ctx, domain.ErrReferenceNotFound.WithDetails(id).WithCause(err))
		}
		m.recorder.ReferenceResolved(domain.PathServer, ResultFailed)
		return nil, m.raise(ctx, domain.ErrNetwork.WithDetails(id).WithCause(err))
	}

	m.recorder.ReferenceResolved(domain.PathServer, ResultOK)
	return &Resolved{
		IDs:       domain.CloneIDs(rec.DocumentIDs),
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
		Path:      domain.PathServer,
	}, nil
}

// resolveClient never fails: unreadable payloads resolve to an empty list.
func (m *Manager) resolveClient(ctx context.Context, payload, salt string) *Resolved {
	state, err := m.openClient(payload, salt)
	if err != nil {
		m.recorder.ReferenceResolved(domain.PathClient, ResultFailed)
		_ = m.raise(ctx, domain.ErrDecryption.WithCause(err))
		return &Resolved{IDs: []string{}, Path: domain.PathClient}
	}

	m.recorder.ReferenceResolved(domain.PathClient, ResultOK)
	return &Resolved{
		IDs:       domain.CloneIDs(state.DocumentIDs),
		Name:      state.Name,
		CreatedAt: state.CreatedAt,
		Path:      domain.PathClient,
	}
}

func (m *Manager) openClient(payload, salt string) (*domain.ReferenceState, error) {
	unescaped, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("unescape: %w", err)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(unescaped)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	c, err := m.cipher(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := c.Decrypt(sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	var state domain.ReferenceState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if state.DocumentIDs == nil {
		return nil, errors.New("parse state: missing documentIds")
	}

	return &state, nil
}

// ============================================================================
// Helpers
// ============================================================================

// raise broadcasts err to observers and returns it.
func (m *Manager) raise(ctx context.Context, err *domain.DomainError) *domain.DomainError {
	m.recorder.ErrorRaised(err.Kind)
	m.debug(ctx, "condition raised", "code", err.Code, "error", err)
	m.observers.notify(ctx, m.logger, err)
	return err
}

func (m *Manager) debug(ctx context.Context, msg string, args ...any) {
	if !m.cfg.Debug {
		return
	}
	m.logger.DebugContext(ctx, msg, args...)
}
