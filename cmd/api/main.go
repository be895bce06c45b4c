package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/citamedica/evolution-bridge/internal/api/router"
	"github.com/citamedica/evolution-bridge/internal/bot"
	"github.com/citamedica/evolution-bridge/internal/citamedica"
	appconfig "github.com/citamedica/evolution-bridge/internal/config"
	"github.com/citamedica/evolution-bridge/internal/dispatch"
	"github.com/citamedica/evolution-bridge/internal/evolution"
	"github.com/citamedica/evolution-bridge/internal/http/handlers"
	"github.com/citamedica/evolution-bridge/internal/observability/metrics"
	"github.com/citamedica/evolution-bridge/internal/processor"
	"github.com/citamedica/evolution-bridge/internal/session"
	"github.com/citamedica/evolution-bridge/internal/webhook"
	"github.com/citamedica/evolution-bridge/internal/workflow"
	"github.com/citamedica/evolution-bridge/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting evolution-bridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// Appointment backend
	backendClient, err := citamedica.New(citamedica.Config{
		BaseURL: cfg.CitaMedicaBaseURL,
		Timeout: cfg.CitaMedicaTimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to configure citamedica client", "error", err)
		os.Exit(1)
	}

	// Outbound WhatsApp
	evolutionClient, err := evolution.New(evolution.Config{
		BaseURL:  cfg.EvolutionBaseURL,
		APIKey:   cfg.EvolutionAPIKey,
		Instance: cfg.EvolutionInstance,
		Timeout:  cfg.EvolutionTimeout,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to configure evolution client", "error", err)
		os.Exit(1)
	}

	// Workflow engine
	workflowClient, err := workflow.New(workflow.Config{
		BaseURL: cfg.N8NWebhookBaseURL,
		Timeout: cfg.N8NTimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to configure workflow client", "error", err)
		os.Exit(1)
	}

	// Session store
	var sessions session.Store
	if cfg.UseRedis {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		cancel()
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL.String())
	} else {
		memStore := session.NewMemoryStore(cfg.SessionTTL)
		defer memStore.Close()
		sessions = memStore
		logger.Info("using in-memory session store", "ttl", cfg.SessionTTL.String())
	}

	// Dialogue machine
	machine := bot.New(citamedica.NewAdapter(backendClient),
		bot.WithLocation(location),
		bot.WithDateWindow(cfg.DateWindowDays),
		bot.WithBotName(cfg.BotName),
		bot.WithLogger(logger),
	)

	bridgeMetrics := metrics.NewBridgeMetrics(prometheus.DefaultRegisterer)

	dispatcher := dispatch.New(
		dispatch.WithMaxPending(cfg.MaxPendingPerSender),
		dispatch.WithLogger(logger),
	)

	proc, err := processor.New(processor.Config{
		Machine:      machine,
		Sessions:     sessions,
		Sender:       evolutionClient,
		Workflow:     workflowClient,
		Dispatcher:   dispatcher,
		Metrics:      bridgeMetrics,
		Logger:       logger,
		ErrorMessage: cfg.BotErrorMessage,
	})
	if err != nil {
		logger.Error("failed to configure processor", "error", err)
		os.Exit(1)
	}

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		Enqueuer: proc,
		Metrics:  bridgeMetrics,
		Logger:   logger,
	})
	healthHandler := handlers.NewHealthHandler(handlers.HealthConfig{
		Backend:      backendClient,
		EvolutionURL: cfg.EvolutionBaseURL,
		WorkflowURL:  cfg.N8NWebhookBaseURL,
		Environment:  cfg.Env,
		Logger:       logger,
	})

	r := router.New(&router.Config{
		Logger:         logger,
		Webhooks:       webhookHandler,
		Health:         healthHandler,
		MetricsHandler: promhttp.Handler(),
		WebhookRate:    cfg.WebhookRatePerSec,
		WebhookBurst:   cfg.WebhookBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let queued conversations finish before the process exits.
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Error("dispatcher shutdown timed out", "error", err)
	}

	logger.Info("server stopped")
}
