// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	APIKey   string
	LogLevel string

	// Airtable record store access
	AirtableAPIKey        string
	AirtableBaseID        string
	AirtableWebhookSecret string

	// OpenAI insights (optional; rule-based fallbacks run without it)
	OpenAIAPIKey    string
	OpenAIRateLimit float64

	// Automation allow-list; empty means all automations enabled
	EnabledAutomations []string

	// Request body cap for webhook and API endpoints (bytes); 0 disables
	MaxRequestBodyBytes int64

	// Observability exporters; empty disables
	OtelMetricsExporter string
	OtelTracesExporter  string
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList retrieves a comma-separated environment variable as a trimmed string slice.
// Empty entries are dropped; an unset variable yields nil.
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}
	return values
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// API_KEY is required (protects the /v1/ management endpoints); webhook
// endpoints authenticate via AIRTABLE_WEBHOOK_SECRET instead, which is
// optional — when unset, webhook signature checks are skipped (development mode).
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		return nil, errors.New("API_KEY environment variable is required but not set")
	}

	maxBody := getEnvAsInt("MAX_REQUEST_BODY_BYTES", 1<<20)
	if maxBody < 0 {
		return nil, errors.New("MAX_REQUEST_BODY_BYTES must not be negative")
	}

	openAIRateLimit := getEnvAsFloat("OPENAI_RATE_LIMIT", 2)
	if openAIRateLimit <= 0 {
		return nil, errors.New("OPENAI_RATE_LIMIT must be a positive number")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		APIKey:   apiKey,
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AirtableAPIKey:        os.Getenv("AIRTABLE_API_KEY"),
		AirtableBaseID:        os.Getenv("AIRTABLE_BASE_ID"),
		AirtableWebhookSecret: os.Getenv("AIRTABLE_WEBHOOK_SECRET"),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIRateLimit: openAIRateLimit,

		EnabledAutomations: getEnvAsList("ENABLED_AUTOMATIONS"),

		MaxRequestBodyBytes: int64(maxBody),

		OtelMetricsExporter: os.Getenv("OTEL_METRICS_EXPORTER"),
		OtelTracesExporter:  os.Getenv("OTEL_TRACES_EXPORTER"),
	}

	return cfg, nil
}
