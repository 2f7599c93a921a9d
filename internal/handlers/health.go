package handlers

import (
	"net/http"
	"runtime"
	"time"

	"clip-relay/internal/pipeline"
	"clip-relay/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Ready     bool   `json:"ready"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Running   bool   `json:"running"`
	RunsTotal int64  `json:"runsTotal"`
	LastRun   string `json:"lastRun,omitempty"`
	LastError string `json:"lastError,omitempty"`

	LastSummary *pipeline.Summary `json:"lastSummary,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It answers 503 until
// the first run has finished and while the latest run is failing.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.watcher.GetHealthStatus()

	response := HealthResponse{
		Ready:        status.RunsTotal > 0,
		Version:      startup.Version,
		Uptime:       status.Uptime,
		Running:      status.IsRunning,
		RunsTotal:    status.RunsTotal,
		LastError:    status.LastError,
		LastSummary:  status.LastSummary,
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if !status.LastRun.IsZero() {
		response.LastRun = status.LastRun.Format(time.RFC3339)
	}

	code := http.StatusOK
	switch {
	case !response.Ready:
		response.Status = statusStarting
		code = http.StatusServiceUnavailable
	case !status.Healthy:
		response.Status = statusDegraded
		code = http.StatusServiceUnavailable
	default:
		response.Status = statusHealthy
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the first run has completed
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.watcher.GetHealthStatus().RunsTotal > 0 {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}

// TriggerRun asks the watcher for an immediate run
func (h *Handlers) TriggerRun(w http.ResponseWriter, _ *http.Request) {
	h.watcher.Trigger()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSONStatus(w, "queued")
}
