// Package cli holds the initialization steps shared by cmd/portfel and
// cmd/portfel-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"portfel/internal/config"
	"portfel/internal/log"
	"portfel/internal/storage"
)

// Bootstrap loads the environment, sets up logging, loads and validates the
// configuration and opens the SQLite repository. It exits the process on
// any failure; callers own closing the repository.
func Bootstrap(component string) (*log.Logger, *config.Config, *storage.SQLiteRepository) {
	// .env is for local development; absence is not an error.
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: component})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	return logger, cfg, repo
}
