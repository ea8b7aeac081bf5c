// Package cache is a thin JSON key-value layer over Redis. A down backend is
// not an error condition for callers: every operation degrades to a no-op or
// a miss, and the pipeline and query layers recompute from source instead.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/models"
)

// Cache key layout. The administrative clear operation depends on exactly
// these names, so they are fixed.
const (
	KeyCleanedData = "cleaned_data"
	KeyStatistics  = "statistics"

	fileHashPrefix = "file_hash:"
)

// dialTimeout bounds connect/read/write against the backend so a hung Redis
// degrades requests to miss behavior instead of blocking them.
const dialTimeout = 5 * time.Second

// Internal failure causes. The external surface stays boolean, but tests and
// logs can tell these apart.
var (
	ErrNotConnected = errors.New("cache backend not connected")
	ErrMiss         = errors.New("cache miss")
)

// Cache wraps a Redis client with JSON serialization and TTL support.
// A nil client (backend unavailable at startup) is a valid degraded state.
type Cache struct {
	client *redis.Client
	log    logger.Logger
}

// Config holds cache backend connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
}

// New connects to Redis. Connection failure is non-fatal: the returned cache
// operates in degraded mode where every read is a miss and every write a
// no-op.
func New(cfg Config, log logger.Logger) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  dialTimeout,
		WriteTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not available, cache disabled",
			logger.String("address", cfg.Address),
			logger.Error(err),
		)
		_ = client.Close()
		return &Cache{client: nil, log: log}
	}

	log.Info("Connected to Redis",
		logger.String("address", cfg.Address),
	)
	return &Cache{client: client, log: log}
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(client *redis.Client, log logger.Logger) *Cache {
	return &Cache{client: client, log: log}
}

// Close releases the backend connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Connected probes the backend and reports reachability. It never returns an
// error; any failure reads as false.
func (c *Cache) Connected(ctx context.Context) bool {
	if c.client == nil {
		return false
	}
	return c.client.Ping(ctx).Err() == nil
}

// Set serializes value as JSON and stores it. A ttl of 0 stores the key with
// no expiry, which is distinct from not caching at all. Returns false on
// serialization failure or an unreachable backend, never an error.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	err := c.set(ctx, key, value, ttl)
	if err != nil {
		c.log.Warn("Cache set failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	c.log.Debug("Cached key",
		logger.String("key", key),
		logger.Duration("ttl", ttl),
	)
	return nil
}

// Get reads key into dest. Returns false both for a missing key and for an
// unreachable backend; callers treat either uniformly as "must recompute".
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	err := c.get(ctx, key, dest)
	if err != nil {
		if !errors.Is(err, ErrMiss) && !errors.Is(err, ErrNotConnected) {
			c.log.Warn("Cache get failed",
				logger.String("key", key),
				logger.Error(err),
			)
		}
		return false
	}
	return true
}

func (c *Cache) get(ctx context.Context, key string, dest any) error {
	if c.client == nil {
		return ErrNotConnected
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrMiss, key)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. The boolean reflects backend reachability.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if c.client == nil {
		return false
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("Cache delete failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return false
	}
	return true
}

// ClearAll discards every key in the configured database, including the
// cleaned dataset, statistics, and all file-hash entries.
func (c *Cache) ClearAll(ctx context.Context) bool {
	if c.client == nil {
		return false
	}
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		c.log.Error("Cache clear failed",
			logger.Error(err),
		)
		return false
	}
	c.log.Info("Cleared all cache entries")
	return true
}

// SetRecords caches a cleaned dataset as an ordered JSON array.
func (c *Cache) SetRecords(ctx context.Context, key string, records []models.Record, ttl time.Duration) bool {
	return c.Set(ctx, key, records, ttl)
}

// GetRecords reads a cached dataset. Returns nil, false on any miss.
func (c *Cache) GetRecords(ctx context.Context, key string) ([]models.Record, bool) {
	var records []models.Record
	if !c.Get(ctx, key, &records) {
		return nil, false
	}
	return records, true
}

// GetFileHash returns the recorded content hash for path, or "" on a miss.
func (c *Cache) GetFileHash(ctx context.Context, path string) (string, bool) {
	var hash string
	if !c.Get(ctx, fileHashPrefix+path, &hash) {
		return "", false
	}
	return hash, true
}

// SetFileHash records the content hash for path with no expiry.
func (c *Cache) SetFileHash(ctx context.Context, path, hash string) bool {
	return c.Set(ctx, fileHashPrefix+path, hash, 0)
}
