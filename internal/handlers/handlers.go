package handlers

import (
	"net/http"

	"clip-relay/internal/middleware"
	"clip-relay/internal/watcher"

	"github.com/gorilla/mux"
)

// WatchController is the part of the watcher the HTTP surface needs.
type WatchController interface {
	GetHealthStatus() watcher.HealthStatus
	Trigger()
}

// Handlers serves the watch mode HTTP endpoints.
type Handlers struct {
	watcher WatchController
}

// New creates the handlers for w.
func New(w WatchController) *Handlers {
	return &Handlers{watcher: w}
}

// NewRouter registers every endpoint on a new router.
func NewRouter(h *Handlers, logHealthChecks bool) *mux.Router {
	router := mux.NewRouter()

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = logHealthChecks
	router.Use(middleware.Logger(loggingConfig))

	router.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet).Name("health")
	router.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("liveness")
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet).Name("readiness")
	router.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet).Name("metrics")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")
	api.HandleFunc("/run", h.TriggerRun).Methods(http.MethodPost).Name("run")

	return router
}
