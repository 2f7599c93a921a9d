package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"clip-relay/internal/pipeline"
	"clip-relay/internal/startup"
	"clip-relay/internal/watcher"
)

type mockWatcher struct {
	mu       sync.Mutex
	status   watcher.HealthStatus
	triggers int
}

func (m *mockWatcher) GetHealthStatus() watcher.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockWatcher) Trigger() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers++
}

func serve(t *testing.T, h *Handlers, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(h, false)
	req := httptest.NewRequest(method, path, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     watcher.HealthStatus
		wantCode   int
		wantStatus string
	}{
		{
			name:       "before first run",
			status:     watcher.HealthStatus{Healthy: true},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusStarting,
		},
		{
			name: "after successful run",
			status: watcher.HealthStatus{
				Healthy:     true,
				RunsTotal:   3,
				LastRun:     time.Now(),
				LastSummary: &pipeline.Summary{Scanned: 2, Uploaded: 2},
			},
			wantCode:   http.StatusOK,
			wantStatus: statusHealthy,
		},
		{
			name: "latest run failed",
			status: watcher.HealthStatus{
				Healthy:   false,
				RunsTotal: 4,
				LastRun:   time.Now(),
				LastError: "failed to read watch folder",
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusDegraded,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := New(&mockWatcher{status: tt.status})
			w := serve(t, h, http.MethodGet, "/healthz")

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", response.Status, tt.wantStatus)
			}
			if response.RunsTotal != tt.status.RunsTotal {
				t.Errorf("RunsTotal = %d, want %d", response.RunsTotal, tt.status.RunsTotal)
			}
			if response.LastError != tt.status.LastError {
				t.Errorf("LastError = %q, want %q", response.LastError, tt.status.LastError)
			}
			if response.Version != startup.Version {
				t.Errorf("Version = %q, want %q", response.Version, startup.Version)
			}
			if tt.status.LastSummary != nil &&
				(response.LastSummary == nil || response.LastSummary.Uploaded != tt.status.LastSummary.Uploaded) {
				t.Errorf("LastSummary = %+v, want %+v", response.LastSummary, tt.status.LastSummary)
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()

	h := New(&mockWatcher{})

	w := serve(t, h, http.MethodGet, "/livez")
	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alive") {
		t.Errorf("GET body = %q", w.Body.String())
	}

	w = serve(t, h, http.MethodHead, "/livez")
	if w.Code != http.StatusOK {
		t.Errorf("HEAD status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", w.Body.String())
	}
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()

	mock := &mockWatcher{}
	h := New(mock)

	if w := serve(t, h, http.MethodGet, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status before first run = %d, want 503", w.Code)
	}

	mock.mu.Lock()
	mock.status.RunsTotal = 1
	mock.mu.Unlock()

	if w := serve(t, h, http.MethodGet, "/readyz"); w.Code != http.StatusOK {
		t.Errorf("status after first run = %d, want 200", w.Code)
	}
}

func TestTriggerRun(t *testing.T) {
	t.Parallel()

	mock := &mockWatcher{}
	h := New(mock)

	w := serve(t, h, http.MethodPost, "/api/run")
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
	if mock.triggers != 1 {
		t.Errorf("triggers = %d, want 1", mock.triggers)
	}

	w = serve(t, h, http.MethodGet, "/api/run")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", w.Code)
	}
	if mock.triggers != 1 {
		t.Error("GET must not trigger a run")
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	w := serve(t, New(&mockWatcher{}), http.MethodGet, "/api/version")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	var info VersionResponse
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info.Name != "clip-relay" {
		t.Errorf("name = %q, want clip-relay", info.Name)
	}
	if info.Version != startup.Version || info.GoVersion == "" {
		t.Errorf("build info = %+v", info)
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	w := serve(t, New(&mockWatcher{}), http.MethodGet, "/metrics")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "# HELP") {
		t.Error("Expected Prometheus metrics format with HELP comments")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("Expected standard Go runtime metrics")
	}
	if !strings.Contains(body, "clip_relay_watcher_errors_total") {
		t.Error("Expected pipeline metrics")
	}
}

func TestNewRouter_UnknownPath(t *testing.T) {
	t.Parallel()

	if w := serve(t, New(&mockWatcher{}), http.MethodGet, "/nope"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSON(w, map[string]string{"status": "ok"})
	if got := strings.TrimSpace(w.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("writeJSON() wrote %q", got)
	}

	w = httptest.NewRecorder()
	writeJSON(w, make(chan int))
	if w.Body.Len() != 0 {
		t.Errorf("unencodable value wrote %q", w.Body.String())
	}
}
