package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/diet-data/internal/cache"
	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/models"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := cache.NewWithClient(client, logger.NewNopLogger())
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	require.True(t, c.Set(ctx, "key", payload{Name: "tofu", Value: 20.5}, 0))

	var got payload
	require.True(t, c.Get(ctx, "key", &got))
	assert.Equal(t, payload{Name: "tofu", Value: 20.5}, got)
}

func TestCache_ZeroTTLMeansNoExpiry(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.True(t, c.Set(ctx, "persistent", "value", 0))
	require.True(t, c.Set(ctx, "expiring", "value", time.Minute))

	assert.Zero(t, srv.TTL("persistent"))
	assert.Equal(t, time.Minute, srv.TTL("expiring"))

	// Even far in the future the no-expiry key survives.
	srv.FastForward(24 * time.Hour)

	var got string
	assert.True(t, c.Get(ctx, "persistent", &got))
	assert.False(t, c.Get(ctx, "expiring", &got))
}

func TestCache_GetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)

	var got string
	assert.False(t, c.Get(context.Background(), "absent", &got))
}

func TestCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.True(t, c.Set(ctx, "key", "value", 0))
	assert.True(t, c.Delete(ctx, "key"))

	var got string
	assert.False(t, c.Get(ctx, "key", &got))
}

func TestCache_ClearAllDiscardsEveryKey(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.True(t, c.Set(ctx, cache.KeyCleanedData, []string{"a"}, 0))
	require.True(t, c.Set(ctx, cache.KeyStatistics, map[string]int{"n": 1}, 0))
	require.True(t, c.SetFileHash(ctx, "/data/diets.csv", "abc123"))

	require.True(t, c.ClearAll(ctx))

	var discard any
	assert.False(t, c.Get(ctx, cache.KeyCleanedData, &discard))
	assert.False(t, c.Get(ctx, cache.KeyStatistics, &discard))
	_, ok := c.GetFileHash(ctx, "/data/diets.csv")
	assert.False(t, ok)
}

func TestCache_RecordsRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	records := []models.Record{
		{
			RecipeName:  "Tofu Bowl",
			DietType:    "vegan",
			CuisineType: "asian",
			Protein:     20,
			Carbs:       30,
			Fat:         5,
			TotalMacros: 55,
			Calories:    165,
			SearchKey:   "tofu bowl",
		},
	}

	require.True(t, c.SetRecords(ctx, cache.KeyCleanedData, records, 0))

	got, ok := c.GetRecords(ctx, cache.KeyCleanedData)
	require.True(t, ok)
	assert.Equal(t, records, got)
}

func TestCache_FileHash(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.GetFileHash(ctx, "/data/diets.csv")
	assert.False(t, ok)

	require.True(t, c.SetFileHash(ctx, "/data/diets.csv", "deadbeef"))

	hash, ok := c.GetFileHash(ctx, "/data/diets.csv")
	require.True(t, ok)
	assert.Equal(t, "deadbeef", hash)
}

func TestCache_Connected(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	assert.True(t, c.Connected(ctx))

	srv.Close()
	assert.False(t, c.Connected(ctx))
}

func TestCache_BackendDownDegradesToMiss(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.True(t, c.Set(ctx, "key", "value", 0))
	srv.Close()

	var got string
	assert.False(t, c.Get(ctx, "key", &got))
	assert.False(t, c.Set(ctx, "key", "value", 0))
	assert.False(t, c.Delete(ctx, "key"))
	assert.False(t, c.ClearAll(ctx))
	assert.False(t, c.SetFileHash(ctx, "/p", "h"))
}

func TestCache_UnreachableBackendAtStartup(t *testing.T) {
	// Connection failure at construction is non-fatal: the cache comes up
	// in degraded mode where every operation is a miss or no-op.
	c := cache.New(cache.Config{Address: "127.0.0.1:1"}, logger.NewNopLogger())
	ctx := context.Background()

	assert.False(t, c.Connected(ctx))
	assert.False(t, c.Set(ctx, "key", "value", 0))

	var got string
	assert.False(t, c.Get(ctx, "key", &got))
	assert.NoError(t, c.Close())
}

func TestCache_SetUnserializableValue(t *testing.T) {
	c, _ := newTestCache(t)

	assert.False(t, c.Set(context.Background(), "key", func() {}, 0))
}
