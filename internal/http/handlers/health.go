package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/citamedica/evolution-bridge/pkg/logging"
)

// BackendPinger reports whether the appointment backend is reachable.
type BackendPinger interface {
	Health(ctx context.Context) error
}

// HealthHandler serves liveness and dependency-status endpoints.
type HealthHandler struct {
	backend      BackendPinger
	evolutionURL string
	workflowURL  string
	environment  string
	started      time.Time
	logger       *logging.Logger
}

// HealthConfig wires the health handler.
type HealthConfig struct {
	Backend      BackendPinger
	EvolutionURL string
	WorkflowURL  string
	Environment  string
	Logger       *logging.Logger
}

func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &HealthHandler{
		backend:      cfg.Backend,
		evolutionURL: cfg.EvolutionURL,
		workflowURL:  cfg.WorkflowURL,
		environment:  cfg.Environment,
		started:      time.Now(),
		logger:       cfg.Logger,
	}
}

// GetHealth is the basic liveness probe.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"environment":    h.environment,
	})
}

// GetStatus checks dependency reachability and reports degraded state
// with a 503 so load balancers can act on it.
func (h *HealthHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	services := map[string]any{}
	healthy := true

	if h.backend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.backend.Health(ctx); err != nil {
			healthy = false
			services["citamedica"] = map[string]any{"status": "unhealthy", "error": err.Error()}
		} else {
			services["citamedica"] = map[string]any{"status": "healthy"}
		}
	} else {
		services["citamedica"] = map[string]any{"status": "not_configured"}
	}

	// Evolution and the workflow engine are config-checked only: both are
	// push targets with no cheap probe endpoint.
	services["evolutionapi"] = configStatus(h.evolutionURL)
	services["n8n"] = configStatus(h.workflowURL)

	overall := "healthy"
	code := http.StatusOK
	if !healthy {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"overall":     overall,
		"services":    services,
		"environment": h.environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func configStatus(url string) map[string]any {
	if url == "" {
		return map[string]any{"status": "not_configured"}
	}
	return map[string]any{"status": "configured", "url": url}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
