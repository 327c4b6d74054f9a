// Package health exposes liveness and readiness endpoints for the
// analysis gateway.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"poise/pkg/logger"
)

// Check probes one backing component
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	checks      []Check
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a health handler over the given component checks
func New(serviceName, version string, checks ...Check) *Handler {
	return &Handler{
		log:         logger.Get().With("component", "health"),
		checks:      checks,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Status represents the overall health status
type Status struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks,omitempty"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if the process is running.
// Used by Kubernetes liveness probe.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness checks whether every backing component answers.
// Used by Kubernetes readiness probe.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, healthy := h.runChecks(ctx)

	status := h.status(checks)
	statusCode := http.StatusOK
	if healthy < len(h.checks) {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

// HandleHealth returns detailed health status with per-component results
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks, healthy := h.runChecks(ctx)

	status := h.status(checks)
	statusCode := http.StatusOK
	switch {
	case len(h.checks) > 0 && healthy == 0:
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case healthy < len(h.checks):
		// Degraded still serves traffic
		status.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) runChecks(ctx context.Context) (map[string]ComponentHealth, int) {
	checks := make(map[string]ComponentHealth, len(h.checks))
	var healthy int
	for _, c := range h.checks {
		start := time.Now()
		err := c.Probe(ctx)
		elapsed := time.Since(start)

		if err != nil {
			h.log.Warnw("Component health check failed", "component", c.Name, "error", err, "elapsed", elapsed)
			checks[c.Name] = ComponentHealth{
				Status:       "unhealthy",
				ResponseTime: elapsed.String(),
				Error:        err.Error(),
			}
			continue
		}
		healthy++
		checks[c.Name] = ComponentHealth{
			Status:       "healthy",
			ResponseTime: elapsed.String(),
		}
	}
	return checks, healthy
}

func (h *Handler) status(checks map[string]ComponentHealth) Status {
	return Status{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}
