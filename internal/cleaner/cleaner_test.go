package cleaner_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/diet-data/internal/cleaner"
	"github.com/jonesrussell/diet-data/internal/logger"
	"github.com/jonesrussell/diet-data/internal/models"
)

func newCleaner() *cleaner.Cleaner {
	return cleaner.New(cleaner.DefaultPolicy(), logger.NewNopLogger())
}

func rawRecord(name, diet, cuisine, protein, carbs, fat string) models.RawRecord {
	return models.RawRecord{
		RecipeName:  name,
		DietType:    diet,
		CuisineType: cuisine,
		Protein:     protein,
		Carbs:       carbs,
		Fat:         fat,
	}
}

func TestClean_DeduplicatesAndNormalizes(t *testing.T) {
	c := newCleaner()

	raw := []models.RawRecord{
		rawRecord("Tofu Bowl", "Vegan", "Asian", "20", "30", "5"),
		rawRecord("Tofu Bowl", "vegan", "Asian", "20", "30", "5"),
	}

	records := c.Clean(raw)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Tofu Bowl", rec.RecipeName)
	assert.Equal(t, "vegan", rec.DietType)
	assert.Equal(t, "asian", rec.CuisineType)
	assert.InDelta(t, 20, rec.Protein, 0.001)
	assert.InDelta(t, 30, rec.Carbs, 0.001)
	assert.InDelta(t, 5, rec.Fat, 0.001)
	assert.InDelta(t, 55, rec.TotalMacros, 0.001)
	assert.InDelta(t, 165, rec.Calories, 0.001)
}

func TestClean_DropsRowsMissingRequiredFields(t *testing.T) {
	c := newCleaner()

	raw := []models.RawRecord{
		rawRecord("", "vegan", "asian", "10", "10", "10"),
		rawRecord("Soup", "", "french", "10", "10", "10"),
		rawRecord("  ", "keto", "mexican", "10", "10", "10"),
		rawRecord("Keeper", "keto", "mexican", "10", "10", "10"),
	}

	records := c.Clean(raw)
	require.Len(t, records, 1)
	assert.Equal(t, "Keeper", records[0].RecipeName)
}

func TestClean_CoercesMalformedNumericsToZero(t *testing.T) {
	c := newCleaner()

	raw := []models.RawRecord{
		rawRecord("Mystery Stew", "paleo", "irish", "abc", "", "12.5"),
	}

	records := c.Clean(raw)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Zero(t, rec.Protein)
	assert.Zero(t, rec.Carbs)
	assert.InDelta(t, 12.5, rec.Fat, 0.001)
	assert.InDelta(t, 12.5, rec.TotalMacros, 0.001)
	assert.InDelta(t, 112.5, rec.Calories, 0.001)
}

func TestClean_RemovesOutliers(t *testing.T) {
	tests := []struct {
		name    string
		protein string
		carbs   string
		fat     string
		kept    bool
	}{
		{"normal", "100", "200", "50", true},
		{"protein at threshold", "2000", "10", "10", false},
		{"carbs at threshold", "10", "3000", "10", false},
		{"fat at threshold", "10", "10", "2000", false},
		{"just below thresholds", "1999.9", "2999.9", "1999.9", true},
	}

	c := newCleaner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []models.RawRecord{
				rawRecord("Recipe "+tt.name, "vegan", "asian", tt.protein, tt.carbs, tt.fat),
			}
			records := c.Clean(raw)
			if tt.kept {
				assert.Len(t, records, 1)
			} else {
				assert.Empty(t, records)
			}
		})
	}
}

func TestClean_DerivedFieldInvariants(t *testing.T) {
	c := newCleaner()

	raw := make([]models.RawRecord, 0, 50)
	for i := 0; i < 50; i++ {
		raw = append(raw, rawRecord(
			fmt.Sprintf("Recipe %d", i), "keto", "greek",
			fmt.Sprintf("%d.5", i), fmt.Sprintf("%d", i*3), fmt.Sprintf("%d.25", i*2),
		))
	}

	for _, rec := range c.Clean(raw) {
		assert.InDelta(t, rec.Protein+rec.Carbs+rec.Fat, rec.TotalMacros, 0.001)
		assert.InDelta(t, rec.Protein*4+rec.Carbs*4+rec.Fat*9, rec.Calories, 0.001)
		assert.Less(t, rec.Protein, 2000.0)
		assert.Less(t, rec.Carbs, 3000.0)
		assert.Less(t, rec.Fat, 2000.0)
	}
}

func TestClean_SearchKey(t *testing.T) {
	tests := []struct {
		name     string
		recipe   string
		expected string
	}{
		{"plain", "Tofu Bowl", "tofu bowl"},
		{"punctuation stripped", "Mac & Cheese (Deluxe)!", "mac  cheese deluxe"},
		{"digits kept", "5-Minute Oats", "5minute oats"},
	}

	c := newCleaner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := c.Clean([]models.RawRecord{
				rawRecord(tt.recipe, "vegan", "american", "1", "1", "1"),
			})
			require.Len(t, records, 1)
			assert.Equal(t, tt.expected, records[0].SearchKey)
		})
	}
}

func TestClean_Deterministic(t *testing.T) {
	c := newCleaner()

	raw := []models.RawRecord{
		rawRecord("Alpha", "vegan", "asian", "10", "20", "5"),
		rawRecord("Beta", "keto", "french", "30", "5", "25"),
		rawRecord("Alpha", "Vegan", "asian", "10", "20", "5"),
		rawRecord("Gamma", "paleo", "", "bad", "40", "10"),
	}

	first := c.Clean(raw)
	second := c.Clean(raw)
	assert.Equal(t, first, second)
}

func TestStatistics_Aggregates(t *testing.T) {
	c := newCleaner()

	records := c.Clean([]models.RawRecord{
		rawRecord("Tofu Bowl", "vegan", "asian", "20", "30", "5"),
		rawRecord("Lentil Soup", "vegan", "indian", "15", "40", "3"),
		rawRecord("Steak", "keto", "american", "50", "0", "30"),
	})
	require.Len(t, records, 3)

	stats := c.Statistics(records)

	assert.Equal(t, 3, stats.TotalRecipes)
	assert.Equal(t, []string{"vegan", "keto"}, stats.DietTypes)
	assert.Equal(t, map[string]int{"vegan": 2, "keto": 1}, stats.RecipesByDiet)
	assert.Len(t, stats.RecipesByCuisine, 3)

	veganAvg := stats.AvgMacrosByDiet["vegan"]
	assert.InDelta(t, 17.5, veganAvg.Protein, 0.001)
	assert.InDelta(t, 35, veganAvg.Carbs, 0.001)
	assert.InDelta(t, 4, veganAvg.Fat, 0.001)

	assert.InDelta(t, 28.33, stats.Overall.AvgProtein, 0.001)
	assert.InDelta(t, 50, stats.Overall.MaxProtein, 0.001)

	require.Len(t, stats.TopCalorieRecipes, 3)
	assert.Equal(t, "Steak", stats.TopCalorieRecipes[0].RecipeName)
	assert.InDelta(t, 470, stats.TopCalorieRecipes[0].Value, 0.001)

	require.Len(t, stats.HighProteinRecipes, 3)
	assert.Equal(t, "Steak", stats.HighProteinRecipes[0].RecipeName)
}

func TestStatistics_TopRankingsBreakTiesByInputOrder(t *testing.T) {
	c := newCleaner()

	raw := make([]models.RawRecord, 0, 12)
	for i := 0; i < 12; i++ {
		// Identical macros, so ranking order must follow input order.
		raw = append(raw, rawRecord(fmt.Sprintf("Recipe %02d", i), "vegan", "asian", "10", "10", "10"))
	}
	records := c.Clean(raw)
	require.Len(t, records, 12)

	stats := c.Statistics(records)
	require.Len(t, stats.TopCalorieRecipes, 10)
	for i, top := range stats.TopCalorieRecipes {
		assert.Equal(t, fmt.Sprintf("Recipe %02d", i), top.RecipeName)
	}
}

func TestStatistics_KeepsTopTwentyCuisines(t *testing.T) {
	c := newCleaner()

	raw := make([]models.RawRecord, 0, 25)
	for i := 0; i < 25; i++ {
		raw = append(raw, rawRecord(
			fmt.Sprintf("Recipe %d", i), "vegan", fmt.Sprintf("cuisine%02d", i),
			"10", "10", "10",
		))
	}
	stats := c.Statistics(c.Clean(raw))

	assert.Len(t, stats.CuisineTypes, 25)
	assert.Len(t, stats.RecipesByCuisine, 20)
}

func TestStatistics_EmptyDataset(t *testing.T) {
	c := newCleaner()

	stats := c.Statistics(nil)
	assert.Zero(t, stats.TotalRecipes)
	assert.Empty(t, stats.DietTypes)
	assert.Empty(t, stats.TopCalorieRecipes)
	assert.NotNil(t, stats.RecipesByDiet)
}

func TestStatistics_DoesNotMutateInput(t *testing.T) {
	c := newCleaner()

	records := c.Clean([]models.RawRecord{
		rawRecord("B Recipe", "vegan", "asian", "5", "5", "5"),
		rawRecord("A Recipe", "vegan", "asian", "50", "5", "5"),
	})
	require.Len(t, records, 2)

	before := make([]models.Record, len(records))
	copy(before, records)

	c.Statistics(records)
	assert.Equal(t, before, records)
}
