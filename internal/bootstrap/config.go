package bootstrap

import (
	"flag"
	"fmt"

	"github.com/jonesrussell/diet-data/internal/cleaner"
	"github.com/jonesrussell/diet-data/internal/config"
	"github.com/jonesrussell/diet-data/internal/logger"
)

// LoadConfig loads configuration from the path given by the -config flag.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", "diet-data"),
		logger.String("version", version),
	), nil
}

func cleanerPolicy(cfg *config.Config) cleaner.Policy {
	return cleaner.Policy{
		MaxProteinGrams:        cfg.Dataset.MaxProteinGrams,
		MaxCarbsGrams:          cfg.Dataset.MaxCarbsGrams,
		MaxFatGrams:            cfg.Dataset.MaxFatGrams,
		CaloriesPerGramProtein: cfg.Dataset.CaloriesPerGramProtein,
		CaloriesPerGramCarbs:   cfg.Dataset.CaloriesPerGramCarbs,
		CaloriesPerGramFat:     cfg.Dataset.CaloriesPerGramFat,
	}
}
