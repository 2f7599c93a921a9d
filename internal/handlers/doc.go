// Package handlers provides the HTTP surface of watch mode.
//
// It includes handlers for:
//   - Health, liveness and readiness probes backed by the watcher state
//   - Prometheus metrics
//   - Build information
//   - Requesting an immediate pipeline run
package handlers
