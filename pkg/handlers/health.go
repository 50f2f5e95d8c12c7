package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/queryforge/queryforge-engine/pkg/config"
)

// ReadyCheck probes one external dependency.
type ReadyCheck func(ctx context.Context) bool

// ReadyResponse reports per-dependency readiness.
type ReadyResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	GoVersion string          `json:"go_version"`
	Checks    map[string]bool `json:"checks"`
}

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	cfg    *config.Config
	checks map[string]ReadyCheck
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler with the given dependency probes.
func NewHealthHandler(cfg *config.Config, checks map[string]ReadyCheck, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, checks: checks, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
}

// Health handles GET /health requests. Liveness only: returns "ok" without
// touching any dependency.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /ready requests. It probes each registered dependency
// under a short timeout and reports 503 when any probe fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{
		Status:    "ready",
		Version:   h.cfg.Version,
		GoVersion: runtime.Version(),
		Checks:    make(map[string]bool, len(h.checks)),
	}

	statusCode := http.StatusOK
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		ok := check(ctx)
		cancel()

		resp.Checks[name] = ok
		if !ok {
			resp.Status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	if err := WriteJSON(w, statusCode, resp); err != nil {
		h.logger.Error("Failed to encode ready response", zap.Error(err))
	}
}
