package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/sardine-ai/go-remote-ini/source"
	"gopkg.in/yaml.v3"
)

const testINI = "[app]\nname = demo\nport = 8080\nratio = 0.5\n\n[db]\nhost = localhost\n"

// mockRepository is a thread-safe mock repository for testing
type mockRepository struct {
	mu           sync.RWMutex
	name         string
	buffer       *ini.Buffer
	rawData      []byte
	refreshCount int
	shouldError  bool
}

func newMockRepository(name string) *mockRepository {
	b, err := ini.Parse(strings.NewReader(testINI))
	if err != nil {
		panic(err)
	}
	return &mockRepository{name: name, buffer: b, rawData: []byte(testINI)}
}

func (m *mockRepository) GetName() string {
	return m.name
}

func (m *mockRepository) GetBuffer() *ini.Buffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buffer
}

func (m *mockRepository) GetRawData() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rawData
}

func (m *mockRepository) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCount++
	if m.shouldError {
		return errors.New("mock refresh error")
	}
	return nil
}

func (m *mockRepository) setError(shouldError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldError = shouldError
}

func (m *mockRepository) getRefreshCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshCount
}

func do(t *testing.T, handler http.Handler, method, target string, header http.Header) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Result()
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse JSON response %q: %v", body, err)
	}
	return result
}

// TestServerHealthEndpoint tests the /health endpoint
func TestServerHealthEndpoint(t *testing.T) {
	repo := newMockRepository("test")
	server := NewServer(context.Background(), []source.Repository{repo}, time.Minute)
	defer server.Stop()

	resp := do(t, server.CreateHandlers(), "GET", "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if result := decodeJSON(t, resp); result["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%v'", result["status"])
	}
}

// TestServerHealthEndpointUnhealthy tests /health and /ready when the
// repository never loads
func TestServerHealthEndpointUnhealthy(t *testing.T) {
	repo := newMockRepository("test")
	repo.setError(true)
	server := NewServer(context.Background(), []source.Repository{repo}, time.Minute)
	defer server.Stop()

	handler := server.CreateHandlers()
	if resp := do(t, handler, "GET", "/health", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/health status = %d; want 503", resp.StatusCode)
	}
	if resp := do(t, handler, "GET", "/ready", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/ready status = %d; want 503", resp.StatusCode)
	}
}

func TestServerStatusEndpoint(t *testing.T) {
	good := newMockRepository("good")
	bad := newMockRepository("bad")
	bad.setError(true)
	server := NewServer(context.Background(), []source.Repository{good, bad}, time.Minute)
	defer server.Stop()

	resp := do(t, server.CreateHandlers(), "GET", "/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	result := decodeJSON(t, resp)
	if result["healthy"] != false {
		t.Errorf("healthy = %v; want false", result["healthy"])
	}
	repos, ok := result["repositories"].([]interface{})
	if !ok || len(repos) != 2 {
		t.Fatalf("repositories = %v; want two entries", result["repositories"])
	}
	first := repos[0].(map[string]interface{})
	if first["name"] != "good" || first["healthy"] != true || first["sections"] != float64(2) {
		t.Errorf("first repository = %v", first)
	}
	second := repos[1].(map[string]interface{})
	if second["name"] != "bad" || second["last_error"] != "mock refresh error" {
		t.Errorf("second repository = %v", second)
	}
}

func TestServerRepositoryEndpoint(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	defer server.Stop()
	handler := server.CreateHandlers()

	resp := do(t, handler, "GET", "/test", nil)
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != testINI {
		t.Errorf("GET /test = %d %q; want 200 %q", resp.StatusCode, body, testINI)
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("GET /test has no ETag header")
	}

	resp = do(t, handler, "GET", "/test?format=yaml", nil)
	body, _ = io.ReadAll(resp.Body)
	var parsed map[string]map[string]interface{}
	if err := yaml.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("yaml response %q: %v", body, err)
	}
	if parsed["app"]["port"] != 8080 || parsed["db"]["host"] != "localhost" {
		t.Errorf("yaml response = %v", parsed)
	}

	resp = do(t, handler, "GET", "/test?section=db", nil)
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "[db]\nhost = localhost\n\n" {
		t.Errorf("GET /test?section=db body = %q", body)
	}

	resp = do(t, handler, "GET", "/test?section=app&key=ratio", nil)
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "0.5\n" {
		t.Errorf("GET /test?section=app&key=ratio body = %q; want \"0.5\\n\"", body)
	}

	resp = do(t, handler, "GET", "/test?section=app&key=ratio&format=json", nil)
	entry := decodeJSON(t, resp)
	if entry["type"] != "float" || entry["value"] != "0.5" {
		t.Errorf("json entry = %v", entry)
	}

	for target, want := range map[string]int{
		"/test?section=missing":        http.StatusNotFound,
		"/test?section=app&key=nope":   http.StatusNotFound,
		"/test?key=ratio":              http.StatusBadRequest,
		"/test?format=xml":             http.StatusBadRequest,
		"/unknown":                     http.StatusNotFound,
		"/test?section=db&format=toml": http.StatusOK,
	} {
		if resp := do(t, handler, "GET", target, nil); resp.StatusCode != want {
			t.Errorf("GET %s status = %d; want %d", target, resp.StatusCode, want)
		}
	}
}

func TestServerETagNotModified(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	defer server.Stop()
	handler := server.CreateHandlers()

	tag := do(t, handler, "GET", "/test", nil).Header.Get("ETag")
	resp := do(t, handler, "GET", "/test", http.Header{"If-None-Match": {tag}})
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("conditional GET status = %d; want 304", resp.StatusCode)
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	defer server.Stop()
	handler := server.CreateHandlers()

	for _, endpoint := range []string{"/health", "/ready", "/status", "/test"} {
		resp := do(t, handler, "POST", endpoint, nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST %s status = %d; want 405", endpoint, resp.StatusCode)
		}
	}
}

func TestServerHEADRequests(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	defer server.Stop()
	handler := server.CreateHandlers()

	for _, endpoint := range []string{"/health", "/ready", "/status", "/test"} {
		if resp := do(t, handler, "HEAD", endpoint, nil); resp.StatusCode != http.StatusOK {
			t.Errorf("HEAD %s status = %d; want 200", endpoint, resp.StatusCode)
		}
	}
}

func TestServerAuthMiddleware(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	defer server.Stop()
	server.AuthKey = "secret"
	handler := server.CreateHandlers()

	if resp := do(t, handler, "GET", "/test", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no key status = %d; want 401", resp.StatusCode)
	}
	if resp := do(t, handler, "GET", "/test", http.Header{"X-Api-Key": {"wrong"}}); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d; want 401", resp.StatusCode)
	}
	if resp := do(t, handler, "GET", "/test", http.Header{"X-Api-Key": {"secret"}}); resp.StatusCode != http.StatusOK {
		t.Errorf("right key status = %d; want 200", resp.StatusCode)
	}
}

func TestServerHealthEndpointsBypassAuth(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	defer server.Stop()
	server.AuthKey = "secret"
	handler := server.CreateHandlers()

	for _, endpoint := range []string{"/health", "/ready", "/status"} {
		if resp := do(t, handler, "GET", endpoint, nil); resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s without key status = %d; want 200", endpoint, resp.StatusCode)
		}
	}
}

func TestServerRefreshIntervalMinimum(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Millisecond)
	defer server.Stop()
	if server.RefreshInterval != MinRefreshInterval {
		t.Errorf("RefreshInterval = %s; want %s", server.RefreshInterval, MinRefreshInterval)
	}
}

func TestServerRecoversAfterFailure(t *testing.T) {
	repo := newMockRepository("test")
	repo.setError(true)
	server := NewServer(context.Background(), []source.Repository{repo}, time.Minute)
	defer server.Stop()
	if server.IsHealthy() || server.IsReady() {
		t.Fatal("server healthy or ready after failed initial refresh")
	}

	repo.setError(false)
	server.refreshOne(context.Background(), repo)
	if !server.IsHealthy() || !server.IsReady() {
		t.Error("server not healthy and ready after successful refresh")
	}
	if got := repo.getRefreshCount(); got != 2 {
		t.Errorf("refresh count = %d; want 2", got)
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	errc := make(chan error, 1)
	go func() { errc <- server.Start("127.0.0.1:0") }()

	// Wait for Start to create the http.Server before shutting it down.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		server.httpMu.Lock()
		started := server.httpServer != nil
		server.httpMu.Unlock()
		if started {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Errorf("Start returned %v after Shutdown; want nil", err)
	}
}

func TestServerStartReturnsError(t *testing.T) {
	server := NewServer(context.Background(), []source.Repository{newMockRepository("test")}, time.Minute)
	defer server.Stop()
	if err := server.Start("invalid-address"); err == nil {
		t.Error("Start succeeded with an invalid address")
	}
}

func TestServerRepositoryNamesWithSpecialCharacters(t *testing.T) {
	repos := []source.Repository{newMockRepository("a b"), newMockRepository("{x}"), newMockRepository("tab\there")}
	server := NewServer(context.Background(), repos, time.Minute)
	defer server.Stop()
	handler := server.CreateHandlers()

	for _, target := range []string{"/a%20b", "/%7Bx%7D", "/tab%09here"} {
		if resp := do(t, handler, "GET", target, nil); resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d; want 200", target, resp.StatusCode)
		}
	}
	if resp := do(t, handler, "GET", "/a", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /a status = %d; want 404", resp.StatusCode)
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"app", "app-1.ini", "{x}", "ünï"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v; want nil", name, err)
		}
	}
	for _, name := range []string{"", "a b", "tab\there", "a/b", "a?b", "a#b", "a%20b", "health", "ready", "status"} {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) succeeded", name)
		}
	}
}
