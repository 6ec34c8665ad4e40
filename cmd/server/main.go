package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/choclar/precificador/internal/config"
	"github.com/choclar/precificador/internal/db"
	"github.com/choclar/precificador/internal/history"
	"github.com/choclar/precificador/internal/insight"
	"github.com/choclar/precificador/internal/migrations"
	"github.com/choclar/precificador/internal/obs"
	"github.com/choclar/precificador/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}

	stats, err := seed.Run(database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to run startup seed")
	}
	if stats.Inserts > 0 {
		logger.Info().Int("inserts", stats.Inserts).Msg("seeded history slot")
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY is not set; insights will return the fallback message")
	}

	srv := newServer(
		database,
		history.NewStore(database, logger),
		insight.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, "", cfg.InsightTimeout, logger),
		cfg.InsightTimeout,
		logger,
	)

	addr := cfg.HTTPAddr()
	logger.Info().Str("addr", addr).Str("env", cfg.AppEnv).Msg("listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
