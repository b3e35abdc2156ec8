package command

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/internal/server/httpserver/handler"
	"github.com/yndnr/refstate-go/internal/storage/memory"
	"github.com/yndnr/refstate-go/pkg/refid"
)

const testSecret = "cli-test-secret"

// newRefServer starts a reference server backed by a memory store.
func newRefServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	t.Cleanup(func() { store.Close() })

	svc := service.NewReferenceService(store, refid.New(refid.WithSecret("server-salt")),
		service.DefaultReferenceServiceConfig(), log)
	ts := httptest.NewServer(handler.New(svc, log))
	t.Cleanup(ts.Close)
	return ts
}

// cliEnv runs commands against one state file and server.
type cliEnv struct {
	t         *testing.T
	server    string
	stateFile string
	config    string
	stdin     string
}

func newCLIEnv(t *testing.T, server string) *cliEnv {
	dir := t.TempDir()
	return &cliEnv{
		t:         t,
		server:    server,
		stateFile: filepath.Join(dir, "state.yaml"),
		config:    filepath.Join(dir, "cli.yaml"),
	}
}

// run executes refstate-cli with args and returns stdout and stderr.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(e.stdin)

	full := []string{"refstate-cli",
		"--config", e.config,
		"--state-file", e.stateFile,
		"--secret", testSecret,
		"--server", e.server,
	}
	full = append(full, args...)
	err := app.Run(full)
	return stdout.String(), stderr.String(), err
}

// mustRun is run that fails the test on error.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, stderr, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%v: error = %v (stderr %q)", args, err, stderr)
	}
	return out
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("doc-%03d", i)
	}
	return ids
}
