package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/telemetry/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	var seenID string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logger.RequestIDFromContext(r.Context())
		if _, ok := RequestStart(r.Context()); !ok {
			t.Error("request start missing from context")
		}
	}))

	tests := []struct {
		name     string
		incoming string
		check    func(t *testing.T, id string)
	}{
		{"generated", "", func(t *testing.T, id string) {
			// req- plus a 26 character ULID
			if !strings.HasPrefix(id, "req-") || len(id) != 30 {
				t.Errorf("generated id = %q", id)
			}
		}},
		{"kept", "upstream-7", func(t *testing.T, id string) {
			if id != "upstream-7" {
				t.Errorf("id = %q, want upstream-7", id)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			tt.check(t, got)
			if seenID != got {
				t.Errorf("context id %q != header id %q", seenID, got)
			}
		})
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "a,b,c,handler" {
		t.Errorf("order = %s", got)
	}
}

func TestRecover(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	Chain(panicky, RequestID(), Recover(log)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("X-Error-Code") != domain.ErrInternalServer.Code {
		t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
	}
	if !strings.Contains(rec.Body.String(), rec.Header().Get(HeaderRequestID)) {
		t.Errorf("envelope lacks request id: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Recover(log)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("pass-through status = %d", rec.Code)
	}
}

func TestStatusWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStatusWriter(rec)
	sw.Write([]byte("body"))
	sw.WriteHeader(http.StatusInternalServerError)
	if sw.status != http.StatusOK {
		t.Errorf("status after implicit header = %d, want 200", sw.status)
	}
	if sw.Unwrap() != rec {
		t.Error("Unwrap() should return the underlying writer")
	}

	sw = newStatusWriter(httptest.NewRecorder())
	sw.WriteHeader(http.StatusCreated)
	if sw.status != http.StatusCreated {
		t.Errorf("status = %d, want 201", sw.status)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"listed origin", []string{"http://app.example"}, http.MethodGet, "http://app.example", "http://app.example", http.StatusOK},
		{"wildcard", []string{"*"}, http.MethodGet, "http://any.example", "http://any.example", http.StatusOK},
		{"empty list allows all", nil, http.MethodGet, "http://any.example", "http://any.example", http.StatusOK},
		{"other origin", []string{"http://app.example"}, http.MethodGet, "http://evil.example", "", http.StatusOK},
		{"preflight", []string{"*"}, http.MethodOptions, "http://app.example", "http://app.example", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler()).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantOrigin != "" && !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
				t.Error("DELETE missing from allowed methods")
			}
		})
	}
}
