// Package server serves health probes and Prometheus metrics over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// LivenessHandler returns a handler for Kubernetes liveness probes.
// Liveness probes should only fail if the process needs to be restarted.
func LivenessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker.Liveness() {
			writeHealth(w, logger, http.StatusOK, HealthResponse{Status: "alive"})
			return
		}
		writeHealth(w, logger, http.StatusServiceUnavailable, HealthResponse{Status: "not alive"})
	}
}

// ReadinessHandler returns a handler for Kubernetes readiness probes.
// The response lists the state of every tracked component.
func ReadinessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{Status: "ready", Checks: checker.GetStatus()}
		code := http.StatusOK

		if !checker.Readiness(r.Context()) {
			response.Status = "not ready"
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, logger, code, response)
	}
}

func writeHealth(w http.ResponseWriter, logger *slog.Logger, code int, response HealthResponse) {
	response.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := sonic.ConfigStd.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode health response", "error", err, "status", response.Status)
	}
}
