package handlers

import (
	"net/http"

	"clip-relay/internal/startup"
)

// appName identifies the service in version responses.
const appName = "clip-relay"

// VersionResponse is the body of /api/version.
type VersionResponse struct {
	Name string `json:"name"`
	startup.BuildInfo
}

// GetVersion returns the application name and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, VersionResponse{Name: appName, BuildInfo: startup.GetBuildInfo()})
}
