package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	defaultDBPath         = "./precificador.db"
	defaultPort           = "8080"
	defaultGeminiModel    = "gemini-3-pro-preview"
	defaultInsightTimeout = "30s"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv         string
	Port           string
	DBPath         string
	GeminiAPIKey   string
	GeminiModel    string
	InsightTimeout time.Duration
	LogLevel       string
	LogFormat      string
}

// Load reads configuration from environment variables and an optional .env
// file. The .env load is best-effort; production should use real env
// injection.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:         valueOrDefault(k.String("APP_ENV"), "development"),
		Port:           valueOrDefault(k.String("PORT"), defaultPort),
		DBPath:         valueOrDefault(k.String("DB_PATH"), defaultDBPath),
		GeminiAPIKey:   strings.TrimSpace(k.String("GEMINI_API_KEY")),
		GeminiModel:    valueOrDefault(k.String("GEMINI_MODEL"), defaultGeminiModel),
		InsightTimeout: parseDuration(k.String("INSIGHT_TIMEOUT"), defaultInsightTimeout),
		LogLevel:       valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:      valueOrDefault(k.String("LOG_FORMAT"), "console"),
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsDev reports whether the app runs in the development environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "development"
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
