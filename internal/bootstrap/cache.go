package bootstrap

import (
	"github.com/jonesrussell/diet-data/internal/cache"
	"github.com/jonesrussell/diet-data/internal/config"
	"github.com/jonesrussell/diet-data/internal/logger"
)

// SetupCache creates the cache backend client. An unreachable backend is not
// fatal: the cache comes up in degraded mode and every read falls through to
// direct recomputation.
func SetupCache(cfg *config.Config, log logger.Logger) *cache.Cache {
	return cache.New(cache.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
}
