// Package bootstrap handles application initialization and lifecycle
// management for the diet-data service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/diet-data/internal/cleaner"
	"github.com/jonesrussell/diet-data/internal/loader"
	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/query"
)

const version = "dev"

// Start initializes and starts the diet-data application.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Connect cache backend (degraded mode tolerated)
	dataCache := SetupCache(cfg, log)
	defer func() {
		if closeErr := dataCache.Close(); closeErr != nil {
			log.Error("Failed to close cache connection", logger.Error(closeErr))
		}
	}()

	// Phase 3: Start the change-detection pipeline
	csvLoader := loader.New(cfg.Dataset.Path)
	dataCleaner := cleaner.New(cleanerPolicy(cfg), log)
	engine := query.New(dataCache, csvLoader, dataCleaner, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline := SetupPipeline(ctx, cfg, dataCache, dataCleaner, csvLoader, log)
	if pipeline != nil {
		defer pipeline.Stop()
	}

	// Phase 4: Run HTTP server until shutdown
	server := SetupHTTPServer(cfg, engine, dataCache, pipeline, csvLoader, log)

	log.Info("Starting HTTP server",
		logger.String("host", cfg.Server.Host),
		logger.Int("port", cfg.Server.Port),
	)

	if runErr := server.Run(ctx); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
