// Package models defines the record and statistics types shared across the
// cleaning pipeline, cache, and query layers.
package models

// RawRecord is one row as read from the source CSV. All fields are strings
// because the source schema is not guaranteed consistent: numeric columns may
// be missing or malformed and are coerced later by the cleaner.
type RawRecord struct {
	RecipeName     string
	DietType       string
	CuisineType    string
	Protein        string
	Carbs          string
	Fat            string
	ExtractionDay  string
	ExtractionTime string
}

// Record is a cleaned canonical row. SearchKey is an internal lookup helper:
// it is stored in the cache alongside the record but must be stripped before
// records are returned to callers (omitempty drops it once cleared).
type Record struct {
	RecipeName     string  `json:"recipe_name"`
	DietType       string  `json:"diet_type"`
	CuisineType    string  `json:"cuisine_type"`
	Protein        float64 `json:"protein_g"`
	Carbs          float64 `json:"carbs_g"`
	Fat            float64 `json:"fat_g"`
	TotalMacros    float64 `json:"total_macros"`
	Calories       float64 `json:"calories"`
	ExtractionDay  string  `json:"extraction_day,omitempty"`
	ExtractionTime string  `json:"extraction_time,omitempty"`
	SearchKey      string  `json:"search_key,omitempty"`
}

// Public returns a copy of the record with the internal search key removed.
func (r Record) Public() Record {
	r.SearchKey = ""
	return r
}

// MacroAverages holds per-group mean macro values, rounded to 2 decimals.
type MacroAverages struct {
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
	Calories float64 `json:"calories"`
}

// OverallStats holds dataset-wide means and maxima.
type OverallStats struct {
	AvgProtein  float64 `json:"avg_protein"`
	AvgCarbs    float64 `json:"avg_carbs"`
	AvgFat      float64 `json:"avg_fat"`
	AvgCalories float64 `json:"avg_calories"`
	MaxProtein  float64 `json:"max_protein"`
	MaxCarbs    float64 `json:"max_carbs"`
	MaxFat      float64 `json:"max_fat"`
	MaxCalories float64 `json:"max_calories"`
}

// TopRecipe is one entry in a top-N ranking. Value carries whichever metric
// the ranking was computed over (calories or protein).
type TopRecipe struct {
	RecipeName  string  `json:"recipe_name"`
	DietType    string  `json:"diet_type"`
	CuisineType string  `json:"cuisine_type"`
	Value       float64 `json:"value"`
}

// Statistics is a precomputed aggregate snapshot over one cleaned dataset.
// It is always replaced wholesale, never partially updated.
type Statistics struct {
	TotalRecipes       int                      `json:"total_recipes"`
	DietTypes          []string                 `json:"diet_types"`
	CuisineTypes       []string                 `json:"cuisine_types"`
	RecipesByDiet      map[string]int           `json:"recipes_by_diet"`
	RecipesByCuisine   map[string]int           `json:"recipes_by_cuisine"`
	AvgMacrosByDiet    map[string]MacroAverages `json:"avg_macros_by_diet"`
	AvgMacrosByCuisine map[string]MacroAverages `json:"avg_macros_by_cuisine"`
	Overall            OverallStats             `json:"overall_stats"`
	TopCalorieRecipes  []TopRecipe              `json:"top_calorie_recipes"`
	HighProteinRecipes []TopRecipe              `json:"high_protein_recipes"`
}
