package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Dialogue
	BotName         string
	BotErrorMessage string
	Timezone        string
	DateWindowDays  int

	// CitaMedica appointment backend
	CitaMedicaBaseURL string
	CitaMedicaTimeout time.Duration

	// Evolution API (outbound WhatsApp)
	EvolutionBaseURL  string
	EvolutionAPIKey   string
	EvolutionInstance string
	EvolutionTimeout  time.Duration

	// n8n workflow engine
	N8NWebhookBaseURL string
	N8NTimeout        time.Duration

	// Session store
	SessionTTL    time.Duration
	UseRedis      bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Dispatch
	MaxPendingPerSender int

	// Webhook rate limiting (requests/sec per IP; 0 disables)
	WebhookRatePerSec float64
	WebhookBurst      int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BotName:         getEnv("BOT_NAME", "Anita - Asistente Médica"),
		BotErrorMessage: getEnv("BOT_ERROR_MESSAGE", "Lo siento, ha ocurrido un error. Por favor, intenta de nuevo."),
		Timezone:        getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),
		DateWindowDays:  getEnvAsInt("DATE_WINDOW_DAYS", 7),

		CitaMedicaBaseURL: strings.TrimRight(getEnv("CITAMEDICA_API_URL", "http://localhost:4001/api"), "/"),
		CitaMedicaTimeout: getEnvAsDuration("CITAMEDICA_TIMEOUT", 30*time.Second),

		EvolutionBaseURL:  strings.TrimRight(getEnv("EVOLUTION_API_URL", "http://localhost:8080"), "/"),
		EvolutionAPIKey:   getEnv("EVOLUTION_API_KEY", ""),
		EvolutionInstance: getEnv("EVOLUTION_INSTANCE_NAME", "citamedica-bot"),
		EvolutionTimeout:  getEnvAsDuration("EVOLUTION_TIMEOUT", 30*time.Second),

		N8NWebhookBaseURL: strings.TrimRight(getEnv("N8N_WEBHOOK_URL", "http://localhost:5678"), "/"),
		N8NTimeout:        getEnvAsDuration("N8N_TIMEOUT", 30*time.Second),

		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		UseRedis:      getEnvAsBool("USE_REDIS_SESSIONS", false),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MaxPendingPerSender: getEnvAsInt("MAX_PENDING_PER_SENDER", 32),

		WebhookRatePerSec: getEnvAsFloat("WEBHOOK_RATE_PER_SEC", 10),
		WebhookBurst:      getEnvAsInt("WEBHOOK_BURST", 30),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
