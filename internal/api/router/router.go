// Package router assembles the HTTP surface: webhook intake, health
// probes, and Prometheus metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/citamedica/evolution-bridge/internal/http/handlers"
	httpmiddleware "github.com/citamedica/evolution-bridge/internal/http/middleware"
	"github.com/citamedica/evolution-bridge/internal/webhook"
	"github.com/citamedica/evolution-bridge/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Webhooks       *webhook.Handler
	Health         *handlers.HealthHandler
	MetricsHandler http.Handler

	// WebhookRate limits unauthenticated webhook traffic per IP. Zero
	// disables rate limiting.
	WebhookRate  float64
	WebhookBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.GetHealth)
		r.Get("/health/status", cfg.Health.GetStatus)
	}

	if cfg.Webhooks != nil {
		r.Group(func(hooks chi.Router) {
			if cfg.WebhookRate > 0 {
				hooks.Use(httpmiddleware.RateLimit(cfg.WebhookRate, cfg.WebhookBurst))
			}
			hooks.Post("/webhook/whatsapp", cfg.Webhooks.HandleMessage)
			hooks.Post("/webhook/evolution", cfg.Webhooks.HandleEvent)
		})
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
