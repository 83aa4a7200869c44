package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Body   string
}

type requestRecorder struct {
	mu       sync.Mutex
	requests []capturedRequest
}

func (r *requestRecorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	body, _ := io.ReadAll(req.Body)
	defer func() { _ = req.Body.Close() }()

	r.requests = append(r.requests, capturedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Body:   string(body),
	})
}

func (r *requestRecorder) last() capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return capturedRequest{}
	}
	return r.requests[len(r.requests)-1]
}

func jsonHandler(rec *requestRecorder, status int, respBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}
}

// runCLI executes the root command against srv and returns stdout. HOME is
// isolated so no real config file is loaded.
func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	rootCmd := newRootCmd()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--host", srv.URL}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{"ok": true}`))
	defer srv.Close()

	out, err := runCLI(t, srv, "status")
	require.NoError(t, err)
	assert.Equal(t, "/status", rec.last().Path)
	assert.Contains(t, out, "ok: true")
}

func TestStatusCommandJSONOutput(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{"ok": true}`))
	defer srv.Close()

	out, err := runCLI(t, srv, "status", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ok": true`)
}

func TestInvalidOutputFormat(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := runCLI(t, srv, "status", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestAuditRunSingleType(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`{"timestamp":"2026-08-28T12:00:00Z","ok":true}`))
	defer srv.Close()

	out, err := runCLI(t, srv, "audit", "run", "accounts")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.last().Method)
	assert.Equal(t, "/api/audits/accounts/run", rec.last().Path)
	assert.Contains(t, out, "ok: true")
}

func TestAuditRunAll(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`{"accounts":{"timestamp":"2026-08-28T12:00:00Z","ok":true}}`))
	defer srv.Close()

	_, err := runCLI(t, srv, "audit", "run")
	require.NoError(t, err)
	assert.Equal(t, "/api/audits/run", rec.last().Path)
}

func TestAuditLatest(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`{"timestamp":"2026-08-28T12:00:00Z","ok":false,"errors":[{"kind":"account","id":3,"name":"a@b.org","errors":["NOT_IN_REMOTE"]}]}`))
	defer srv.Close()

	out, err := runCLI(t, srv, "audit", "latest", "accounts")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, rec.last().Method)
	assert.Equal(t, "/api/audits/accounts", rec.last().Path)
	assert.Contains(t, out, "NOT_IN_REMOTE")
}

func TestAuditLatestNotRun(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusNotFound,
		`{"error":"no report for audit type \"accounts\""}`))
	defer srv.Close()

	_, err := runCLI(t, srv, "audit", "latest", "accounts")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	assert.Contains(t, apiErr.Message, "no report")
}

func TestBillingProjectCreate(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusCreated,
		`{"id":1,"name":"anvil-datastorage","has_app_as_user":true}`))
	defer srv.Close()

	out, err := runCLI(t, srv, "billing-projects", "create", "--name", "anvil-datastorage")
	require.NoError(t, err)
	assert.Equal(t, "/api/billing-projects", rec.last().Path)
	assert.Contains(t, rec.last().Body, `"name":"anvil-datastorage"`)
	assert.Contains(t, rec.last().Body, `"has_app_as_user":true`)
	assert.Contains(t, out, "anvil-datastorage")
}

func TestBillingProjectCreateRequiresName(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := runCLI(t, srv, "billing-projects", "create")
	require.Error(t, err)
}

func TestAccountLifecycleCommands(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`{"id":2,"email":"x@example.com","is_active":false}`))
	defer srv.Close()

	_, err := runCLI(t, srv, "accounts", "deactivate", "2")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.last().Method)
	assert.Equal(t, "/api/accounts/2/deactivate", rec.last().Path)

	_, err = runCLI(t, srv, "accounts", "reactivate", "2")
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts/2/reactivate", rec.last().Path)
}

func TestResourceListAndDelete(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"auth-readers"}]`))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "groups", "list")
	require.NoError(t, err)
	assert.Equal(t, "/api/groups", rec.last().Path)
	assert.Contains(t, out, "auth-readers")

	_, err = runCLI(t, srv, "groups", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.last().Method)
	assert.Equal(t, "/api/groups/1", rec.last().Path)
}

func TestGroupsGraphCommand(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`{"groups":[],"edges":[]}`))
	defer srv.Close()

	_, err := runCLI(t, srv, "groups", "graph")
	require.NoError(t, err)
	assert.Equal(t, "/api/groups/graph", rec.last().Path)
}

func TestWorkspaceSharingCommand(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`[{"group_id":4,"access":"READER","can_compute":false,"can_share":false}]`))
	defer srv.Close()

	out, err := runCLI(t, srv, "workspaces", "sharing", "7")
	require.NoError(t, err)
	assert.Equal(t, "/api/workspaces/7/sharing", rec.last().Path)
	assert.Contains(t, out, "READER")
}

func TestConfigSetAndShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	runSet := func(args ...string) error {
		rootCmd := newRootCmd()
		rootCmd.SetOut(io.Discard)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs(args)
		return rootCmd.Execute()
	}
	require.NoError(t, runSet("config", "set", "output", "json"))
	require.Error(t, runSet("config", "set", "output", "xml"))
	require.Error(t, runSet("config", "set", "nonsense", "x"))

	rootCmd := newRootCmd()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"config", "show"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"output": "json"`)
}

func TestVersionCommand(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	out, err := runCLI(t, srv, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: dev")
}
