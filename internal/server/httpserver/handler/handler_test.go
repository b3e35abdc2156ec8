// Package handler provides HTTP request handlers for refstate.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/internal/storage/memory"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// envelope mirrors refstatev1.Response with raw data for assertions.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Details   any             `json:"details"`
}

func testHandler(t *testing.T, opts ...Option) (*Handler, *memory.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	t.Cleanup(func() { store.Close() })

	svc := service.NewReferenceService(store, refid.New(refid.WithSecret("salt-secret")),
		service.DefaultReferenceServiceConfig(), logger)
	return New(svc, logger, opts...), store
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestCreateAndGetReference(t *testing.T) {
	h, _ := testHandler(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/ref-state",
		`{"documentIds":["b","a","b"],"name":"picked","expireIn":60000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Code != "OK" || env.RequestID != "req-test" {
		t.Errorf("envelope = %+v", env)
	}

	var created struct {
		ReferenceID string `json:"referenceId"`
		ExpiresAt   int64  `json:"expiresAt"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	if len(created.ReferenceID) != 16 {
		t.Errorf("referenceId length = %d, want 16", len(created.ReferenceID))
	}
	if d := created.ExpiresAt - time.Now().Add(time.Minute).UnixMilli(); d > 1000 || d < -1000 {
		t.Errorf("expiresAt off by %dms", d)
	}

	rec, env = doRequest(t, h, http.MethodGet, "/api/ref-state/"+created.ReferenceID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var got struct {
		DocumentIDs []string `json:"documentIds"`
		Name        string   `json:"name"`
		CreatedAt   int64    `json:"createdAt"`
		ExpiresAt   int64    `json:"expiresAt"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.DocumentIDs, []string{"b", "a", "b"}) {
		t.Errorf("documentIds = %v", got.DocumentIDs)
	}
	if got.Name != "picked" || got.ExpiresAt != created.ExpiresAt || got.CreatedAt == 0 {
		t.Errorf("reference = %+v", got)
	}
}

func TestCreateReference_BadRequests(t *testing.T) {
	h, store := testHandler(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"documentIds":`, domain.ErrBadRequest.Code},
		{"wrong element type", `{"documentIds":[1,2]}`, domain.ErrBadRequest.Code},
		{"missing list", `{"name":"x"}`, domain.ErrInvalidDocuments.Code},
		{"null list", `{"documentIds":null}`, domain.ErrInvalidDocuments.Code},
		{"empty list", `{"documentIds":[]}`, domain.ErrInvalidDocuments.Code},
		{"unknown id format", `{"documentIds":["a"],"idFormat":"base32"}`, domain.ErrInvalidArgument.Code},
		{"key too long", `{"documentIds":["a"],"keyLength":100000}`, domain.ErrInvalidArgument.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodPost, "/api/ref-state", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if env.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Code, tt.wantCode)
			}
			if rec.Header().Get("X-Error-Code") != tt.wantCode {
				t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("store holds %d records after rejected requests", store.Len())
	}
}

func TestCreateReference_IDFormats(t *testing.T) {
	h, _ := testHandler(t)

	tests := []struct {
		format  string
		wantLen int
	}{
		{"alphanumeric", 16},
		{"hex", 16},
		{"base64url", 20},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec, env := doRequest(t, h, http.MethodPost, "/api/ref-state",
				`{"documentIds":["a"],"idFormat":"`+tt.format+`","salt":"s"}`)
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var created struct {
				ReferenceID string `json:"referenceId"`
			}
			json.Unmarshal(env.Data, &created)
			if len(created.ReferenceID) != tt.wantLen {
				t.Errorf("id %q length = %d, want %d", created.ReferenceID, len(created.ReferenceID), tt.wantLen)
			}
		})
	}
}

func TestGetReference_NotFound(t *testing.T) {
	h, _ := testHandler(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/ref-state/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if env.Code != domain.ErrReferenceNotFound.Code {
		t.Errorf("code = %q", env.Code)
	}
}

func TestGetReference_Expired(t *testing.T) {
	h, _ := testHandler(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/ref-state", `{"documentIds":["a"],"expireIn":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var created struct {
		ReferenceID string `json:"referenceId"`
	}
	json.Unmarshal(env.Data, &created)

	time.Sleep(30 * time.Millisecond)

	rec, _ = doRequest(t, h, http.MethodGet, "/api/ref-state/"+created.ReferenceID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after expiry = %d, want 404", rec.Code)
	}
}

func TestDeleteReference(t *testing.T) {
	h, store := testHandler(t)

	_, env := doRequest(t, h, http.MethodPost, "/api/ref-state", `{"documentIds":["a"]}`)
	var created struct {
		ReferenceID string `json:"referenceId"`
	}
	json.Unmarshal(env.Data, &created)

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, h, http.MethodDelete, "/api/ref-state/"+created.ReferenceID, "")
		if rec.Code != http.StatusOK {
			t.Errorf("DELETE #%d status = %d, want 200", i+1, rec.Code)
		}
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d after delete", store.Len())
	}
}

func TestCustomBasePath(t *testing.T) {
	h, _ := testHandler(t, WithBasePath("refs/"))
	if h.BasePath() != "/refs" {
		t.Fatalf("BasePath() = %q", h.BasePath())
	}

	rec, _ := doRequest(t, h, http.MethodPost, "/refs", `{"documentIds":["a"]}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("POST /refs status = %d", rec.Code)
	}
	rec, _ = doRequest(t, h, http.MethodPost, "/api/ref-state", `{"documentIds":["a"]}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("default path still mounted: status = %d", rec.Code)
	}
}

// brokenService fails every call with err.
type brokenService struct{ err error }

func (b brokenService) CreateReference(context.Context, *service.CreateReferenceRequest) (*service.CreateReferenceResponse, error) {
	return nil, b.err
}
func (b brokenService) GetReference(context.Context, string) (*domain.ReferenceRecord, error) {
	return nil, b.err
}
func (b brokenService) DeleteReference(context.Context, string) error { return b.err }

func TestServiceErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"storage", domain.ErrStorage.WithCause(errors.New("disk")), http.StatusInternalServerError, domain.ErrStorage.Code},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, domain.ErrInternalServer.Code},
		{"network", domain.ErrNetwork, http.StatusBadGateway, domain.ErrNetwork.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(brokenService{err: tt.err}, logger)
			rec, env := doRequest(t, h, http.MethodGet, "/api/ref-state/x", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Code, tt.wantCode)
			}
			if strings.Contains(rec.Body.String(), "disk") || strings.Contains(rec.Body.String(), "boom") {
				t.Error("internal cause leaked into response")
			}
		})
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"RS-REF-4040", http.StatusNotFound},
		{"RS-ARG-4000", http.StatusBadRequest},
		{"RS-ARG-4002", http.StatusBadRequest},
		{"RS-CRYP-4001", http.StatusBadRequest},
		{"RS-SYS-4290", http.StatusTooManyRequests},
		{"RS-NET-5020", http.StatusBadGateway},
		{"RS-CRYP-5001", http.StatusInternalServerError},
		{"RS-SYS-5000", http.StatusInternalServerError},
		{"garbage", http.StatusInternalServerError},
		{"RS-X-1000", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := errorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("errorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	h, _ := testHandler(t)

	rec, env := doRequest(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health struct {
		Status string `json:"status"`
	}
	json.Unmarshal(env.Data, &health)
	if health.Status != "healthy" {
		t.Errorf("status = %q", health.Status)
	}
}

func TestReady(t *testing.T) {
	var fail error
	h, _ := testHandler(t, WithReadyCheck("storage", func(context.Context) error { return fail }))

	rec, _ := doRequest(t, h, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	fail = errors.New("store closed")
	rec, env := doRequest(t, h, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not-ready status = %d, want 503", rec.Code)
	}
	if !bytes.Contains(env.Data, []byte("store closed")) {
		t.Errorf("data = %s", env.Data)
	}
}
