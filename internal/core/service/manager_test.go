// Package service provides domain services for refstate.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// mockBackend is a hand-written Backend for testing.
type mockBackend struct {
	mu        sync.Mutex
	records   map[string]*domain.ReferenceRecord
	createErr error
	getErr    error
	creates   int
	lastReq   *CreateReferenceRequest
}

func newMockBackend() *mockBackend {
	return &mockBackend{records: make(map[string]*domain.ReferenceRecord)}
}

func (b *mockBackend) CreateReference(_ context.Context, req *CreateReferenceRequest) (*CreateReferenceResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	b.lastReq = req
	if b.createErr != nil {
		return nil, b.createErr
	}
	id := fmt.Sprintf("ref%d", b.creates)
	rec := domain.NewReferenceRecord(req.DocumentIDs, req.Name, req.Salt != "")
	rec.ExpiresAt = time.Now().Add(req.ExpireIn).UnixMilli()
	b.records[id] = rec
	return &CreateReferenceResponse{ReferenceID: id, ExpiresAt: rec.ExpiresAt}, nil
}

func (b *mockBackend) GetReference(_ context.Context, id string) (*domain.ReferenceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	rec, ok := b.records[id]
	if !ok {
		return nil, domain.ErrReferenceNotFound
	}
	return rec.Clone(), nil
}

// captureObserver records raised conditions.
type captureObserver struct {
	mu     sync.Mutex
	events []*domain.DomainError
}

func (c *captureObserver) observe(_ context.Context, err *domain.DomainError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, err)
}

func (c *captureObserver) kinds() []domain.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Kind, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Kind)
	}
	return out
}

// countingRecorder is a hand-written Recorder for testing.
type countingRecorder struct {
	mu        sync.Mutex
	created   map[domain.Path]int
	fallbacks int
	errors    map[domain.Kind]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{created: map[domain.Path]int{}, errors: map[domain.Kind]int{}}
}

func (r *countingRecorder) ReferenceCreated(p domain.Path) {
	r.mu.Lock()
	r.created[p]++
	r.mu.Unlock()
}

func (r *countingRecorder) ReferenceFallback() {
	r.mu.Lock()
	r.fallbacks++
	r.mu.Unlock()
}

func (r *countingRecorder) ReferenceResolved(domain.Path, string) {}

func (r *countingRecorder) ErrorRaised(k domain.Kind) {
	r.mu.Lock()
	r.errors[k]++
	r.mu.Unlock()
}

func testManager(t *testing.T, opts ...ManagerOption) (*Manager, *captureObserver) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	cfg.Debug = true

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, err := NewManager(cfg, append([]ManagerOption{WithLogger(logger)}, opts...)...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	obs := &captureObserver{}
	m.OnError(obs.observe)
	return m, obs
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("doc-%03d", i)
	}
	return ids
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(DefaultConfig())
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("NewManager without secret = %v, want ErrInvalidArgument", err)
	}
}

func TestManager_ClientRoundTrip(t *testing.T) {
	m, obs := testManager(t)
	ctx := context.Background()

	tests := []struct {
		name string
		ids  []string
		salt string
	}{
		{"empty list", []string{}, ""},
		{"nil list", nil, ""},
		{"single", []string{"a"}, ""},
		{"order and duplicates", []string{"z", "a", "z", "m"}, ""},
		{"with salt", []string{"x", "y"}, "tenant-7"},
		{"unicode and separators", []string{"doc/1?x=y&z", "документ", "c:nested"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.Create(ctx, tt.ids, CreateOptions{ServerSync: Bool(false), Salt: tt.salt})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !strings.HasPrefix(token, domain.ClientMarker) {
				t.Fatalf("token %q lacks client marker", token)
			}

			got, err := m.Resolve(ctx, token, tt.salt)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			want := tt.ids
			if want == nil {
				want = []string{}
			}
			if got == nil || !slices.Equal(got, want) {
				t.Fatalf("Resolve = %#v, want %#v", got, want)
			}
		})
	}

	if len(obs.kinds()) != 0 {
		t.Fatalf("unexpected events: %v", obs.kinds())
	}
}

func TestManager_ClientTokenIsURLSafe(t *testing.T) {
	m, _ := testManager(t)

	token, err := m.Create(context.Background(), makeIDs(20), CreateOptions{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, r := range strings.TrimPrefix(token, domain.ClientMarker) {
		ok := r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			t.Fatalf("token contains %q", r)
		}
	}
}

func TestManager_Threshold(t *testing.T) {
	backend := newMockBackend()
	m, _ := testManager(t, WithBackend(backend))
	ctx := context.Background()

	token, err := m.Create(ctx, makeIDs(DefaultMaxClientDocs), CreateOptions{})
	if err != nil {
		t.Fatalf("Create(50): %v", err)
	}
	if backend.creates != 0 {
		t.Fatal("50 ids must not reach the server path")
	}
	if !strings.HasPrefix(token, domain.ClientMarker) {
		t.Fatalf("token = %q, want client token", token)
	}

	token, err = m.Create(ctx, makeIDs(DefaultMaxClientDocs+1), CreateOptions{Name: "big"})
	if err != nil {
		t.Fatalf("Create(51): %v", err)
	}
	if backend.creates != 1 {
		t.Fatalf("backend creates = %d, want 1", backend.creates)
	}
	if token != "s:ref1" {
		t.Fatalf("token = %q, want s:ref1", token)
	}
	if backend.lastReq.ExpireIn != DefaultExpiry {
		t.Errorf("ExpireIn = %v, want default %v", backend.lastReq.ExpireIn, DefaultExpiry)
	}
	if backend.lastReq.KeyLength != refid.DefaultLength(refid.FormatAlphanumeric) {
		t.Errorf("KeyLength = %d", backend.lastReq.KeyLength)
	}

	r, err := m.ResolveState(ctx, token, "")
	if err != nil {
		t.Fatalf("ResolveState: %v", err)
	}
	if len(r.IDs) != DefaultMaxClientDocs+1 || r.Name != "big" || r.Path != domain.PathServer {
		t.Fatalf("ResolveState = %d ids, name %q, path %q", len(r.IDs), r.Name, r.Path)
	}
	if r.ExpiresAt == 0 {
		t.Error("server resolve should carry ExpiresAt")
	}
}

func TestManager_ServerSyncDisabled(t *testing.T) {
	backend := newMockBackend()
	m, _ := testManager(t, WithBackend(backend))

	token, err := m.Create(context.Background(), makeIDs(100), CreateOptions{ServerSync: Bool(false)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if backend.creates != 0 || !strings.HasPrefix(token, domain.ClientMarker) {
		t.Fatalf("server sync disabled but token = %q, creates = %d", token, backend.creates)
	}
}

func TestManager_Fallback(t *testing.T) {
	tests := []struct {
		name string
		opts []ManagerOption
	}{
		{"failing backend", []ManagerOption{WithBackend(&mockBackend{createErr: errors.New("connection refused")})}},
		{"no backend", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newCountingRecorder()
			m, obs := testManager(t, append(tt.opts, WithRecorder(rec))...)
			ctx := context.Background()
			ids := makeIDs(75)

			token, err := m.Create(ctx, ids, CreateOptions{})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !strings.HasPrefix(token, domain.ClientMarker) {
				t.Fatalf("token = %q, want client fallback", token)
			}
			if len(obs.kinds()) != 0 {
				t.Fatalf("fallback raised public events: %v", obs.kinds())
			}
			if rec.fallbacks != 1 || rec.created[domain.PathClient] != 1 {
				t.Fatalf("fallbacks = %d, client creates = %d", rec.fallbacks, rec.created[domain.PathClient])
			}

			got, err := m.Resolve(ctx, token, "")
			if err != nil || !slices.Equal(got, ids) {
				t.Fatalf("Resolve after fallback = %d ids, %v", len(got), err)
			}
		})
	}
}

func TestManager_TamperedToken(t *testing.T) {
	m, obs := testManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, []string{"a", "b"}, CreateOptions{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mutated := []byte(token)
	i := len(mutated) - 5
	if mutated[i] == 'A' {
		mutated[i] = 'B'
	} else {
		mutated[i] = 'A'
	}

	tests := []struct {
		name  string
		token string
		salt  string
	}{
		{"truncated", token[:len(token)-6], ""},
		{"mutated", string(mutated), ""},
		{"wrong salt", token, "other"},
		{"not base64", "c:***", ""},
		{"bad escape", "c:%zz", ""},
		{"empty payload", "c:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(obs.kinds())
			got, err := m.Resolve(ctx, tt.token, tt.salt)
			if err != nil {
				t.Fatalf("Resolve returned error %v, want nil", err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("Resolve = %#v, want empty list", got)
			}
			kinds := obs.kinds()
			if len(kinds) != before+1 || kinds[len(kinds)-1] != domain.KindDecryption {
				t.Fatalf("events = %v, want a trailing DECRYPTION", kinds)
			}
		})
	}
}

func TestManager_ForeignSecret(t *testing.T) {
	m1, _ := testManager(t)
	token, _ := m1.Create(context.Background(), []string{"a"}, CreateOptions{})

	cfg := DefaultConfig()
	cfg.Secret = "someone-else"
	m2, _ := NewManager(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	got, err := m2.Resolve(context.Background(), token, "")
	if err != nil || len(got) != 0 {
		t.Fatalf("Resolve under another secret = %v, %v; want empty list", got, err)
	}
}

func TestManager_LegacyToken(t *testing.T) {
	m, obs := testManager(t)
	ctx := context.Background()

	token, _ := m.Create(ctx, []string{"legacy-1", "legacy-2"}, CreateOptions{})
	legacy := strings.TrimPrefix(token, domain.ClientMarker)

	got, err := m.Resolve(ctx, legacy, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !slices.Equal(got, []string{"legacy-1", "legacy-2"}) {
		t.Fatalf("Resolve(legacy) = %v", got)
	}
	if len(obs.kinds()) != 0 {
		t.Fatalf("unexpected events: %v", obs.kinds())
	}
}

func TestManager_EmptyToken(t *testing.T) {
	m, obs := testManager(t)

	got, err := m.Resolve(context.Background(), "", "")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("Resolve(\"\") = %#v, %v; want empty list", got, err)
	}
	if len(obs.kinds()) != 0 {
		t.Fatal("empty token must not raise events")
	}
}

func TestManager_ServerErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		token   string
		want    *domain.DomainError
	}{
		{"not found", newMockBackend(), "s:missing", domain.ErrReferenceNotFound},
		{"empty id", newMockBackend(), "s:", domain.ErrReferenceNotFound},
		{"transport failure", &mockBackend{getErr: errors.New("dial tcp: timeout")}, "s:abc", domain.ErrNetwork},
		{"storage failure", &mockBackend{getErr: domain.ErrStorage}, "s:abc", domain.ErrNetwork},
		{"no backend", nil, "s:abc", domain.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []ManagerOption
			if tt.backend != nil {
				opts = append(opts, WithBackend(tt.backend))
			}
			m, obs := testManager(t, opts...)

			got, err := m.Resolve(context.Background(), tt.token, "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Resolve error = %v, want %v", err, tt.want)
			}
			if got != nil {
				t.Fatalf("Resolve ids = %v, want nil", got)
			}
			kinds := obs.kinds()
			if len(kinds) != 1 || kinds[0] != tt.want.Kind {
				t.Fatalf("events = %v, want [%s]", kinds, tt.want.Kind)
			}
		})
	}
}

func TestManager_ObserverPanicIsContained(t *testing.T) {
	m, obs := testManager(t, WithObserver(func(context.Context, *domain.DomainError) {
		panic("observer bug")
	}))

	got, err := m.Resolve(context.Background(), "c:broken", "")
	if err != nil || len(got) != 0 {
		t.Fatalf("Resolve = %v, %v", got, err)
	}
	if kinds := obs.kinds(); len(kinds) != 1 {
		t.Fatalf("later observer saw %d events, want 1", len(kinds))
	}
}

func TestManager_CipherMismatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Secret = "s"
	cfg.Cipher = "rot13"
	if _, err := NewManager(cfg); err == nil {
		t.Fatal("NewManager accepted an unknown cipher")
	}
}

func TestManager_ConcurrentUse(t *testing.T) {
	backend := newMockBackend()
	m, _ := testManager(t, WithBackend(backend))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ids := makeIDs(n * 5)
			token, err := m.Create(ctx, ids, CreateOptions{})
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			got, err := m.Resolve(ctx, token, "")
			if err != nil || len(got) != len(ids) {
				t.Errorf("Resolve(%d ids) = %d, %v", len(ids), len(got), err)
			}
		}(i)
	}
	wg.Wait()
}
