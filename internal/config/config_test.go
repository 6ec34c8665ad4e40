package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "DB_PATH", "GEMINI_API_KEY", "GEMINI_MODEL", "INSIGHT_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.IsDev() {
		t.Fatalf("expected default env to be development, got %q", cfg.AppEnv)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr())
	}
	if cfg.DBPath != defaultDBPath {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.GeminiModel != defaultGeminiModel {
		t.Fatalf("unexpected model %q", cfg.GeminiModel)
	}
	if cfg.InsightTimeout != 30*time.Second {
		t.Fatalf("unexpected insight timeout %v", cfg.InsightTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/var/lib/precificador/data.db")
	t.Setenv("GEMINI_API_KEY", " secret ")
	t.Setenv("INSIGHT_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.IsDev() {
		t.Fatal("expected production env")
	}
	if cfg.HTTPAddr() != ":9090" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr())
	}
	if cfg.GeminiAPIKey != "secret" {
		t.Fatalf("expected trimmed api key, got %q", cfg.GeminiAPIKey)
	}
	if cfg.InsightTimeout != 5*time.Second {
		t.Fatalf("unexpected insight timeout %v", cfg.InsightTimeout)
	}
}

func TestParseDurationFallsBack(t *testing.T) {
	if d := parseDuration("not-a-duration", "10s"); d != 10*time.Second {
		t.Fatalf("expected fallback duration, got %v", d)
	}
}
