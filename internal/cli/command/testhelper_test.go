package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// mockServer is a fake auth API with per-path handlers.
type mockServer struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
}

// newMockServer creates a mock server and isolates $HOME for the test,
// so no real config file or credential store is touched.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		handler, ok := m.handlers[r.Method+" "+r.URL.Path]
		m.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// loginHandler accepts any credentials and issues A1/R1 for Ann Lee.
func loginHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"access_token":  "A1",
		"refresh_token": "R1",
		"user": map[string]any{
			"id":         42,
			"email":      "a@x.com",
			"first_name": "Ann",
			"last_name":  "Lee",
			"user_type":  "member",
		},
	})
}

// bearer returns the bearer token of r.
func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// invocation is the captured result of one CLI run.
type invocation struct {
	stdout string
	stderr string
	err    error
}

// run executes fintrack-cli against server with the given args.
func run(t *testing.T, server *mockServer, args ...string) invocation {
	t.Helper()
	return runWithInput(t, server, "", args...)
}

// runWithInput is run with stdin.
func runWithInput(t *testing.T, server *mockServer, stdin string, args ...string) invocation {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	argv := append([]string{"fintrack-cli", "--server", server.URL}, args...)
	err := app.RunContext(context.Background(), argv)
	return invocation{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// decodeView parses JSON output into a map.
func decodeView(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	return v
}
