// Package cleaner turns raw CSV rows into the canonical cleaned dataset and
// computes the aggregate statistics served alongside it. Both operations are
// pure: no I/O and no cache awareness.
package cleaner

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/models"
)

const (
	topCuisineCount = 20
	topRecipeCount  = 10
)

// Policy holds the tunable cleaning constants: outlier ceilings and calorie
// conversion factors. These mirror the upstream dataset policy and carry no
// domain rationale, so they stay configurable.
type Policy struct {
	MaxProteinGrams        float64
	MaxCarbsGrams          float64
	MaxFatGrams            float64
	CaloriesPerGramProtein float64
	CaloriesPerGramCarbs   float64
	CaloriesPerGramFat     float64
}

// DefaultPolicy returns the standard thresholds (protein < 2000g,
// carbs < 3000g, fat < 2000g; 4/4/9 calories per gram).
func DefaultPolicy() Policy {
	return Policy{
		MaxProteinGrams:        2000,
		MaxCarbsGrams:          3000,
		MaxFatGrams:            2000,
		CaloriesPerGramProtein: 4,
		CaloriesPerGramCarbs:   4,
		CaloriesPerGramFat:     9,
	}
}

// Cleaner implements the cleaning and statistics passes.
type Cleaner struct {
	policy Policy
	log    logger.Logger
}

func New(policy Policy, log logger.Logger) *Cleaner {
	return &Cleaner{policy: policy, log: log}
}

// Clean transforms raw rows into the canonical dataset. The pass order is
// fixed for reproducibility: dedup, drop rows missing required fields, coerce
// numerics, normalize text, derive calculated fields, drop outliers last.
func (c *Cleaner) Clean(raw []models.RawRecord) []models.Record {
	c.log.Info("Starting data cleaning",
		logger.Int("rows", len(raw)),
	)

	records := make([]models.Record, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	duplicates := 0

	for _, row := range raw {
		name := strings.TrimSpace(row.RecipeName)
		diet := strings.ToLower(strings.TrimSpace(row.DietType))

		// Required fields, then first-occurrence dedup on (name, diet).
		if name == "" || diet == "" {
			continue
		}
		dedupKey := name + "\x00" + diet
		if _, dup := seen[dedupKey]; dup {
			duplicates++
			continue
		}
		seen[dedupKey] = struct{}{}

		protein := coerceNumeric(row.Protein)
		carbs := coerceNumeric(row.Carbs)
		fat := coerceNumeric(row.Fat)

		rec := models.Record{
			RecipeName:     name,
			DietType:       diet,
			CuisineType:    strings.ToLower(strings.TrimSpace(row.CuisineType)),
			Protein:        protein,
			Carbs:          carbs,
			Fat:            fat,
			TotalMacros:    protein + carbs + fat,
			Calories:       protein*c.policy.CaloriesPerGramProtein + carbs*c.policy.CaloriesPerGramCarbs + fat*c.policy.CaloriesPerGramFat,
			ExtractionDay:  strings.TrimSpace(row.ExtractionDay),
			ExtractionTime: strings.TrimSpace(row.ExtractionTime),
			SearchKey:      searchKey(name),
		}

		// Outlier filter runs after derived fields exist.
		if rec.Protein >= c.policy.MaxProteinGrams ||
			rec.Carbs >= c.policy.MaxCarbsGrams ||
			rec.Fat >= c.policy.MaxFatGrams {
			continue
		}

		records = append(records, rec)
	}

	c.log.Info("Data cleaning completed",
		logger.Int("duplicates_removed", duplicates),
		logger.Int("final_rows", len(records)),
	)

	return records
}

// coerceNumeric parses a macro value, treating anything unparseable as 0.
func coerceNumeric(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// searchKey lower-cases a recipe name and strips everything that is not a
// letter, digit, or whitespace.
func searchKey(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Statistics aggregates a cleaned dataset into the precomputed snapshot the
// statistics endpoint serves. The input is never mutated; rankings break
// ties by input order.
func (c *Cleaner) Statistics(records []models.Record) *models.Statistics {
	stats := &models.Statistics{
		TotalRecipes:       len(records),
		DietTypes:          []string{},
		CuisineTypes:       []string{},
		RecipesByDiet:      make(map[string]int),
		RecipesByCuisine:   make(map[string]int),
		AvgMacrosByDiet:    make(map[string]models.MacroAverages),
		AvgMacrosByCuisine: make(map[string]models.MacroAverages),
		TopCalorieRecipes:  []models.TopRecipe{},
		HighProteinRecipes: []models.TopRecipe{},
	}
	if len(records) == 0 {
		return stats
	}

	dietCounts := make(map[string]int)
	cuisineCounts := make(map[string]int)
	dietTotals := make(map[string]*macroTotals)
	cuisineTotals := make(map[string]*macroTotals)
	var dietOrder, cuisineOrder []string
	var overall macroTotals

	for _, r := range records {
		if _, ok := dietCounts[r.DietType]; !ok {
			dietOrder = append(dietOrder, r.DietType)
			dietTotals[r.DietType] = &macroTotals{}
		}
		dietCounts[r.DietType]++
		dietTotals[r.DietType].add(r)

		if _, ok := cuisineCounts[r.CuisineType]; !ok {
			cuisineOrder = append(cuisineOrder, r.CuisineType)
			cuisineTotals[r.CuisineType] = &macroTotals{}
		}
		cuisineCounts[r.CuisineType]++
		cuisineTotals[r.CuisineType].add(r)

		overall.add(r)
		if r.Protein > overall.maxProtein {
			overall.maxProtein = r.Protein
		}
		if r.Carbs > overall.maxCarbs {
			overall.maxCarbs = r.Carbs
		}
		if r.Fat > overall.maxFat {
			overall.maxFat = r.Fat
		}
		if r.Calories > overall.maxCalories {
			overall.maxCalories = r.Calories
		}
	}

	stats.DietTypes = append(stats.DietTypes, dietOrder...)
	stats.CuisineTypes = append(stats.CuisineTypes, cuisineOrder...)
	stats.RecipesByDiet = dietCounts

	// Cuisine counts keep only the top 20, ties broken by input order.
	topCuisines := make([]string, len(cuisineOrder))
	copy(topCuisines, cuisineOrder)
	sort.SliceStable(topCuisines, func(i, j int) bool {
		return cuisineCounts[topCuisines[i]] > cuisineCounts[topCuisines[j]]
	})
	if len(topCuisines) > topCuisineCount {
		topCuisines = topCuisines[:topCuisineCount]
	}
	for _, cuisine := range topCuisines {
		stats.RecipesByCuisine[cuisine] = cuisineCounts[cuisine]
	}

	for diet, totals := range dietTotals {
		stats.AvgMacrosByDiet[diet] = totals.averages(dietCounts[diet])
	}
	for cuisine, totals := range cuisineTotals {
		stats.AvgMacrosByCuisine[cuisine] = totals.averages(cuisineCounts[cuisine])
	}

	n := len(records)
	stats.Overall = models.OverallStats{
		AvgProtein:  round2(overall.protein / float64(n)),
		AvgCarbs:    round2(overall.carbs / float64(n)),
		AvgFat:      round2(overall.fat / float64(n)),
		AvgCalories: round2(overall.calories / float64(n)),
		MaxProtein:  round2(overall.maxProtein),
		MaxCarbs:    round2(overall.maxCarbs),
		MaxFat:      round2(overall.maxFat),
		MaxCalories: round2(overall.maxCalories),
	}

	stats.TopCalorieRecipes = topBy(records, func(r models.Record) float64 { return r.Calories })
	stats.HighProteinRecipes = topBy(records, func(r models.Record) float64 { return r.Protein })

	return stats
}

type macroTotals struct {
	protein, carbs, fat, calories             float64
	maxProtein, maxCarbs, maxFat, maxCalories float64
}

func (t *macroTotals) add(r models.Record) {
	t.protein += r.Protein
	t.carbs += r.Carbs
	t.fat += r.Fat
	t.calories += r.Calories
}

func (t *macroTotals) averages(count int) models.MacroAverages {
	if count == 0 {
		return models.MacroAverages{}
	}
	n := float64(count)
	return models.MacroAverages{
		Protein:  round2(t.protein / n),
		Carbs:    round2(t.carbs / n),
		Fat:      round2(t.fat / n),
		Calories: round2(t.calories / n),
	}
}

// topBy returns the ten highest records by the given metric, stable on ties.
func topBy(records []models.Record, metric func(models.Record) float64) []models.TopRecipe {
	ranked := make([]models.Record, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric(ranked[i]) > metric(ranked[j])
	})
	if len(ranked) > topRecipeCount {
		ranked = ranked[:topRecipeCount]
	}

	top := make([]models.TopRecipe, 0, len(ranked))
	for _, r := range ranked {
		top = append(top, models.TopRecipe{
			RecipeName:  r.RecipeName,
			DietType:    r.DietType,
			CuisineType: r.CuisineType,
			Value:       metric(r),
		})
	}
	return top
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
