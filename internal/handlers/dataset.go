// Package handlers exposes the dataset, statistics, and administrative HTTP
// endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/diet-data/internal/cache"
	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/models"
	"github.com/jonesrussell/diet-data/internal/query"
	"github.com/jonesrussell/diet-data/internal/watcher"
)

// reprocessTimeout bounds the forced pipeline pass triggered by clear-cache.
const reprocessTimeout = 60 * time.Second

// DatasetHandler serves queries over the canonical dataset and the
// administrative cache operations.
type DatasetHandler struct {
	engine   *query.Engine
	cache    *cache.Cache
	pipeline *watcher.Pipeline
	logger   logger.Logger
}

func NewDatasetHandler(engine *query.Engine, c *cache.Cache, pipeline *watcher.Pipeline, log logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		engine:   engine,
		cache:    c,
		pipeline: pipeline,
		logger:   log,
	}
}

// FetchDataset returns the cleaned dataset filtered, searched, and sorted per
// query parameters, with an echo of the filters that were applied.
func (h *DatasetHandler) FetchDataset(c *gin.Context) {
	filters := parseFilters(c)

	records, total, applied, err := h.engine.Fetch(c.Request.Context(), filters)
	if err != nil {
		if errors.Is(err, query.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset file not found"})
			return
		}
		h.logger.Error("Failed to fetch dataset",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dataset"})
		return
	}

	h.logger.Info("Returning recipes",
		logger.Int("count", total),
	)

	c.JSON(http.StatusOK, gin.H{
		"data":            records,
		"total_items":     total,
		"filters_applied": applied,
	})
}

// Statistics returns the precomputed aggregate snapshot, cache-first with
// compute-and-populate fallback.
func (h *DatasetHandler) Statistics(c *gin.Context) {
	stats, err := h.engine.Statistics(c.Request.Context())
	if err != nil {
		if errors.Is(err, query.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset file not found"})
			return
		}
		h.logger.Error("Failed to fetch statistics",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// DietTypes returns the sorted distinct diet types in the current dataset.
func (h *DatasetHandler) DietTypes(c *gin.Context) {
	h.enumerate(c, "diet_types", h.engine.DietTypes)
}

// CuisineTypes returns the sorted distinct cuisine types in the current
// dataset.
func (h *DatasetHandler) CuisineTypes(c *gin.Context) {
	h.enumerate(c, "cuisine_types", h.engine.CuisineTypes)
}

func (h *DatasetHandler) enumerate(c *gin.Context, field string, fetch func(context.Context) ([]string, error)) {
	values, err := fetch(c.Request.Context())
	if err != nil {
		if errors.Is(err, query.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset file not found"})
			return
		}
		h.logger.Error("Failed to enumerate dataset values",
			logger.String("field", field),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch " + field})
		return
	}

	c.JSON(http.StatusOK, gin.H{field: values})
}

// ClearCache discards every cache entry and re-triggers a forced pipeline
// pass so the derived artifacts are rebuilt from the current source bytes.
func (h *DatasetHandler) ClearCache(c *gin.Context) {
	if !h.cache.ClearAll(c.Request.Context()) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}

	if h.pipeline != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), reprocessTimeout)
			defer cancel()
			if err := h.pipeline.Process(ctx, true); err != nil {
				h.logger.Error("Forced reprocessing after cache clear failed",
					logger.Error(err),
				)
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared successfully"})
}

// parseFilters reads the recognized query options. Unparseable numeric
// bounds are treated as absent, matching the echoed-filters contract: only
// what was actually applied is reported.
func parseFilters(c *gin.Context) models.Filters {
	return models.Filters{
		DietType:    c.Query("diet_type"),
		CuisineType: c.Query("cuisine_type"),
		Search:      c.Query("search"),
		MinProtein:  floatParam(c, "min_protein"),
		MaxProtein:  floatParam(c, "max_protein"),
		MinCarbs:    floatParam(c, "min_carbs"),
		MaxCarbs:    floatParam(c, "max_carbs"),
		MinFat:      floatParam(c, "min_fat"),
		MaxFat:      floatParam(c, "max_fat"),
		MinCalories: floatParam(c, "min_calories"),
		MaxCalories: floatParam(c, "max_calories"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}
}

func floatParam(c *gin.Context, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
