// Package query serves ad-hoc filter, search, and sort requests over the
// cached canonical dataset, reading through to the source file when the cache
// is cold or the backend is down.
package query

import (
	"context"
	"sort"
	"strings"

	"github.com/jonesrussell/diet-data/internal/cache"
	"github.com/jonesrussell/diet-data/internal/cleaner"
	"github.com/jonesrussell/diet-data/internal/loader"
	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/models"
)

// ErrDatasetNotFound reports that the source file is missing and nothing is
// cached: the caller gets a "dataset not found" result, never a crash.
var ErrDatasetNotFound = loader.ErrSourceNotFound

// Engine answers dataset queries. It holds no mutable state of its own; the
// cache is the only shared resource, so a query observes either the previous
// or the newly completed processing pass, never a partial one.
type Engine struct {
	cache   *cache.Cache
	loader  *loader.CSVLoader
	cleaner *cleaner.Cleaner
	log     logger.Logger
}

func New(c *cache.Cache, l *loader.CSVLoader, cl *cleaner.Cleaner, log logger.Logger) *Engine {
	return &Engine{
		cache:   c,
		loader:  l,
		cleaner: cl,
		log:     log,
	}
}

// dataset returns the canonical dataset, cache-first. On a miss it reads the
// source, cleans it, and populates the cache before returning (read-through),
// so a cold cache self-heals without the pipeline having run.
func (e *Engine) dataset(ctx context.Context) ([]models.Record, error) {
	if records, ok := e.cache.GetRecords(ctx, cache.KeyCleanedData); ok {
		return records, nil
	}

	e.log.Warn("Cache miss, reading from source file",
		logger.String("path", e.loader.Path()),
	)

	raw, err := e.loader.Load()
	if err != nil {
		return nil, err
	}

	records := e.cleaner.Clean(raw)
	e.cache.SetRecords(ctx, cache.KeyCleanedData, records, 0)
	return records, nil
}

// Fetch applies the given filters to the canonical dataset and returns the
// matching records (search key stripped), the match count, and an echo of
// exactly which filters were applied.
func (e *Engine) Fetch(ctx context.Context, f models.Filters) ([]models.Record, int, models.AppliedFilters, error) {
	records, err := e.dataset(ctx)
	if err != nil {
		return nil, 0, models.AppliedFilters{}, err
	}

	applied := normalize(f)

	filtered := make([]models.Record, 0, len(records))
	for _, r := range records {
		if matches(r, applied) {
			filtered = append(filtered, r)
		}
	}

	sortRecords(filtered, applied)

	for i := range filtered {
		filtered[i] = filtered[i].Public()
	}

	return filtered, len(filtered), applied, nil
}

// Statistics returns the precomputed aggregate snapshot, cache-first,
// recomputing from the canonical dataset and populating the cache on a miss.
func (e *Engine) Statistics(ctx context.Context) (*models.Statistics, error) {
	var stats models.Statistics
	if e.cache.Get(ctx, cache.KeyStatistics, &stats) {
		return &stats, nil
	}

	e.log.Warn("Statistics not cached, calculating now")

	records, err := e.dataset(ctx)
	if err != nil {
		return nil, err
	}

	computed := e.cleaner.Statistics(records)
	e.cache.Set(ctx, cache.KeyStatistics, computed, 0)
	return computed, nil
}

// DietTypes returns the sorted distinct diet types in the current dataset.
func (e *Engine) DietTypes(ctx context.Context) ([]string, error) {
	return e.distinct(ctx, func(r models.Record) string { return r.DietType })
}

// CuisineTypes returns the sorted distinct cuisine types in the current
// dataset.
func (e *Engine) CuisineTypes(ctx context.Context) ([]string, error) {
	return e.distinct(ctx, func(r models.Record) string { return r.CuisineType })
}

func (e *Engine) distinct(ctx context.Context, field func(models.Record) string) ([]string, error) {
	records, err := e.dataset(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	values := []string{}
	for _, r := range records {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// Recognized sort fields; anything else disables sorting rather than
// erroring.
var sortFields = map[string]struct{}{
	"protein":     {},
	"carbs":       {},
	"fat":         {},
	"calories":    {},
	"recipe_name": {},
}

// normalize trims and lower-cases the string filters and resolves the sort
// options, producing the exact echo of what will be applied. Unset filters
// stay nil; sort_order is echoed only when a recognized sort_by is present.
func normalize(f models.Filters) models.AppliedFilters {
	applied := models.AppliedFilters{
		MinProtein:  f.MinProtein,
		MaxProtein:  f.MaxProtein,
		MinCarbs:    f.MinCarbs,
		MaxCarbs:    f.MaxCarbs,
		MinFat:      f.MinFat,
		MaxFat:      f.MaxFat,
		MinCalories: f.MinCalories,
		MaxCalories: f.MaxCalories,
	}

	if v := strings.ToLower(strings.TrimSpace(f.DietType)); v != "" {
		applied.DietType = &v
	}
	if v := strings.ToLower(strings.TrimSpace(f.CuisineType)); v != "" {
		applied.CuisineType = &v
	}
	if v := strings.ToLower(strings.TrimSpace(f.Search)); v != "" {
		applied.Search = &v
	}

	sortBy := strings.ToLower(strings.TrimSpace(f.SortBy))
	if _, ok := sortFields[sortBy]; ok {
		applied.SortBy = &sortBy

		order := strings.ToLower(strings.TrimSpace(f.SortOrder))
		if order != "desc" {
			order = "asc"
		}
		applied.SortOrder = &order
	}

	return applied
}

// matches applies every provided predicate as a conjunction.
func matches(r models.Record, f models.AppliedFilters) bool {
	if f.DietType != nil && r.DietType != *f.DietType {
		return false
	}
	if f.CuisineType != nil && r.CuisineType != *f.CuisineType {
		return false
	}
	if f.Search != nil && !strings.Contains(r.SearchKey, *f.Search) {
		return false
	}
	if f.MinProtein != nil && r.Protein < *f.MinProtein {
		return false
	}
	if f.MaxProtein != nil && r.Protein > *f.MaxProtein {
		return false
	}
	if f.MinCarbs != nil && r.Carbs < *f.MinCarbs {
		return false
	}
	if f.MaxCarbs != nil && r.Carbs > *f.MaxCarbs {
		return false
	}
	if f.MinFat != nil && r.Fat < *f.MinFat {
		return false
	}
	if f.MaxFat != nil && r.Fat > *f.MaxFat {
		return false
	}
	if f.MinCalories != nil && r.Calories < *f.MinCalories {
		return false
	}
	if f.MaxCalories != nil && r.Calories > *f.MaxCalories {
		return false
	}
	return true
}

func sortRecords(records []models.Record, f models.AppliedFilters) {
	if f.SortBy == nil {
		return
	}

	var key func(models.Record) float64
	switch *f.SortBy {
	case "protein":
		key = func(r models.Record) float64 { return r.Protein }
	case "carbs":
		key = func(r models.Record) float64 { return r.Carbs }
	case "fat":
		key = func(r models.Record) float64 { return r.Fat }
	case "calories":
		key = func(r models.Record) float64 { return r.Calories }
	}

	desc := f.SortOrder != nil && *f.SortOrder == "desc"

	sort.SliceStable(records, func(i, j int) bool {
		if key != nil {
			if desc {
				return key(records[i]) > key(records[j])
			}
			return key(records[i]) < key(records[j])
		}
		if desc {
			return records[i].RecipeName > records[j].RecipeName
		}
		return records[i].RecipeName < records[j].RecipeName
	})
}
