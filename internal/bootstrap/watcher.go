package bootstrap

import (
	"context"

	"github.com/jonesrussell/diet-data/internal/cache"
	"github.com/jonesrussell/diet-data/internal/cleaner"
	"github.com/jonesrussell/diet-data/internal/config"
	"github.com/jonesrussell/diet-data/internal/loader"
	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/watcher"
)

// SetupPipeline starts the change-detection pipeline for the source file.
// Returns nil when the file does not exist yet; queries then serve their
// 404 fallback until the file appears and the cache is cleared.
func SetupPipeline(
	ctx context.Context,
	cfg *config.Config,
	dataCache *cache.Cache,
	dataCleaner *cleaner.Cleaner,
	csvLoader *loader.CSVLoader,
	log logger.Logger,
) *watcher.Pipeline {
	if !csvLoader.Exists() {
		log.Warn("CSV file not found, file watcher disabled",
			logger.String("path", cfg.Dataset.Path),
		)
		return nil
	}

	pipeline := watcher.New(cfg.Dataset.Path, dataCache, dataCleaner, log)
	if err := pipeline.Start(ctx); err != nil {
		log.Error("Failed to start file watcher",
			logger.String("path", cfg.Dataset.Path),
			logger.Error(err),
		)
		return nil
	}

	log.Info("File watcher started",
		logger.String("path", pipeline.Path()),
	)
	return pipeline
}
