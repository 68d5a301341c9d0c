package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/config"
	"github.com/pathnova/pathnova-api/internal/generator"
	"github.com/pathnova/pathnova-api/internal/repository"
	"github.com/pathnova/pathnova-api/internal/repository/postgres"
	"github.com/pathnova/pathnova-api/internal/repository/sqlite"
	"github.com/pathnova/pathnova-api/internal/service"
	"github.com/pathnova/pathnova-api/internal/session"
)

// openDatabase connects to Postgres for postgres:// URLs and otherwise
// treats DATABASE_URL as a SQLite file path. Both run migrations on open.
func openDatabase(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Database, error) {
	if cfg.UsesPostgres() {
		db, err := postgres.New(ctx, cfg.DatabaseURL, postgres.Options{})
		if err != nil {
			return nil, err
		}
		logger.Info("database ready", slog.String("driver", "postgres"))
		return db, nil
	}

	if cfg.DatabaseURL != ":memory:" {
		dir := filepath.Dir(cfg.DatabaseURL)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqlite.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database ready", slog.String("driver", "sqlite"), slog.String("path", cfg.DatabaseURL))
	return db, nil
}

// openRevocations uses Redis when REDIS_URL is set so that logouts are
// shared between replicas; otherwise revocations live in this process.
func openRevocations(cfg config.Config, logger *slog.Logger) (session.Store, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, session revocations are kept in memory")
		return session.NewMemoryStore(), nil
	}
	store, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("session revocations backed by redis")
	return store, nil
}

func newGenerator(cfg config.Config, logger *slog.Logger) (generator.Generator, error) {
	if cfg.TestLLM {
		logger.Warn("TEST_LLM enabled, plans come from the offline generator")
		return generator.Static{}, nil
	}
	return generator.NewOpenAI(generator.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		Temperature: 0.3,
		Timeout:     cfg.OpenAITimeout(),
	})
}

// newProviders returns the enabled sign-in providers. Google is skipped,
// not fatal, when its client credentials are missing.
func newProviders(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]service.IdentityProvider, error) {
	if !cfg.GoogleEnabled() {
		logger.Warn("Google OAuth not configured, sign-in is disabled")
		return nil, nil
	}
	verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, nil)
	if err != nil {
		return nil, err
	}
	google := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, verifier)
	return []service.IdentityProvider{google}, nil
}
