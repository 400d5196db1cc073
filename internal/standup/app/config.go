package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	SigningSecret string // Required: shared secret for webhook signature verification
	TokenSecret   string // Required: HS256 secret for submission magic tokens

	Issuer           string        // Optional: issuer claim for magic tokens (default: standup-core)
	BaseURL          string        // Optional: public origin for submission links (default: http://localhost:8080)
	TokenTTL         time.Duration // Optional: magic token lifetime (default: 24h)
	FreshnessWindow  time.Duration // Optional: webhook timestamp tolerance (default: 5m)
	DedupWindow      time.Duration // Optional: duplicate delivery memory (default: 30m)
	JobSpec          string        // Optional: cron expression for the three jobs (default: every minute)
	SlackBotToken    string        // Optional: bot token for outbound messages; empty disables delivery
	DatabaseFile     string        // Optional: path to SQLite database file (default: ./standup.db)
	RedisAddr        string        // Optional: dedup registry address (default: localhost:6379)
	RedisPassword    string        // Optional: dedup registry password
	Env              string        // Environment (dev, staging, prod) (default: dev)
	LogLevel         string        // Log level (debug, info, warn, error) (default: info)
	LogFormat        string        // Log format (json, text) (default: json)
	Port             int           // HTTP server port (default: 8080)
	ShutdownGrace    time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	// A local .env is a dev convenience; absence is the normal case in
	// staging and prod where the environment is injected.
	_ = godotenv.Load()

	return Config{
		SigningSecret: os.Getenv("STANDUP_SIGNING_SECRET"),
		TokenSecret:   os.Getenv("STANDUP_TOKEN_SECRET"),

		Issuer:          getEnvOrDefault("STANDUP_ISSUER", "standup-core"),
		BaseURL:         getEnvOrDefault("STANDUP_BASE_URL", "http://localhost:8080"),
		TokenTTL:        getEnvDurationOrDefault("STANDUP_TOKEN_TTL", 24*time.Hour),
		FreshnessWindow: getEnvDurationOrDefault("STANDUP_FRESHNESS_WINDOW", 5*time.Minute),
		DedupWindow:     getEnvDurationOrDefault("STANDUP_DEDUP_WINDOW", 30*time.Minute),
		JobSpec:         getEnvOrDefault("STANDUP_JOB_SPEC", "* * * * *"),
		SlackBotToken:   os.Getenv("SLACK_BOT_TOKEN"),
		DatabaseFile:    getEnvOrDefault("STANDUP_DATABASE_FILE", "standup.db"),
		RedisAddr:       getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		Env:             getEnvOrDefault("ENV", "dev"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "json"),
		Port:            getEnvIntOrDefault("PORT", 8080),
		ShutdownGrace:   getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
