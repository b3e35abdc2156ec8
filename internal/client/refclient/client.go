// Package refclient provides an HTTP client for the refstate server.
package refclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	refstatev1 "github.com/yndnr/refstate-go/api/v1"
	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/core/service"
)

// Defaults.
const (
	DefaultBasePath = "/api/ref-state"
	DefaultTimeout  = 10 * time.Second
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (status %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client talks to the reference-state endpoints over HTTP.
type Client struct {
	baseURL   string
	basePath  string
	client    *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithTLSConfig sets the TLS configuration of the transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.client.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: cfg,
		}
	}
}

// WithBasePath sets the endpoint base path.
func WithBasePath(p string) Option {
	return func(c *Client) {
		c.basePath = "/" + strings.Trim(p, "/")
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for server, e.g. "localhost:8080" or
// "https://refs.example.com".
func New(server string, opts ...Option) *Client {
	// Ensure baseURL has http:// prefix
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL:   baseURL,
		basePath:  DefaultBasePath,
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: "refstate-client/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateReference implements service.Backend.
func (c *Client) CreateReference(ctx context.Context, req *service.CreateReferenceRequest) (*service.CreateReferenceResponse, error) {
	body := refstatev1.CreateReferenceRequest{
		DocumentIDs: req.DocumentIDs,
		Salt:        req.Salt,
		Name:        req.Name,
		ExpireIn:    req.ExpireIn.Milliseconds(),
		IDFormat:    string(req.IDFormat),
		KeyLength:   req.KeyLength,
	}

	var out refstatev1.CreateReferenceResponse
	if err := c.do(ctx, http.MethodPost, c.basePath, body, &out); err != nil {
		return nil, err
	}

	return &service.CreateReferenceResponse{
		ReferenceID: out.ReferenceID,
		ExpiresAt:   out.ExpiresAt,
	}, nil
}

// GetReference implements service.Backend.
func (c *Client) GetReference(ctx context.Context, id string) (*domain.ReferenceRecord, error) {
	var out refstatev1.ReferenceResponse
	if err := c.do(ctx, http.MethodGet, c.referencePath(id), nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, domain.ErrReferenceNotFound.WithDetails(id).WithCause(err)
		}
		return nil, err
	}

	return &domain.ReferenceRecord{
		DocumentIDs: domain.CloneIDs(out.DocumentIDs),
		Name:        out.Name,
		CreatedAt:   out.CreatedAt,
		ExpiresAt:   out.ExpiresAt,
	}, nil
}

// DeleteReference removes a reference on the server.
func (c *Client) DeleteReference(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.referencePath(id), nil, nil)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*refstatev1.HealthResponse, error) {
	var out refstatev1.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsNotFound reports whether err is a not-found response.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return domain.IsDomainError(err, domain.ErrReferenceNotFound.Code)
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == domain.ErrReferenceNotFound.Code
}

func (c *Client) referencePath(id string) string {
	return c.basePath + "/" + url.PathEscape(id)
}

// do sends a JSON request and decodes the envelope's data into target.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return parseResponse(resp, target)
}

// parseResponse decodes an envelope, returning *APIError for error statuses.
func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp refstatev1.Response
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if target == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	envelope := refstatev1.Response{Data: target}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

var _ service.Backend = (*Client)(nil)
