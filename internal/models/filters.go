package models

// Filters holds the recognized query options for dataset fetches. String
// fields are unapplied when empty; numeric bounds are unapplied when nil.
type Filters struct {
	DietType    string
	CuisineType string
	Search      string
	MinProtein  *float64
	MaxProtein  *float64
	MinCarbs    *float64
	MaxCarbs    *float64
	MinFat      *float64
	MaxFat      *float64
	MinCalories *float64
	MaxCalories *float64
	SortBy      string
	SortOrder   string
}

// AppliedFilters echoes exactly which filter values were applied to a result
// set, normalized. Unapplied filters serialize as null so callers can tell
// "not requested" apart from any legitimate value.
type AppliedFilters struct {
	DietType    *string  `json:"diet_type"`
	CuisineType *string  `json:"cuisine_type"`
	Search      *string  `json:"search"`
	MinProtein  *float64 `json:"min_protein"`
	MaxProtein  *float64 `json:"max_protein"`
	MinCarbs    *float64 `json:"min_carbs"`
	MaxCarbs    *float64 `json:"max_carbs"`
	MinFat      *float64 `json:"min_fat"`
	MaxFat      *float64 `json:"max_fat"`
	MinCalories *float64 `json:"min_calories"`
	MaxCalories *float64 `json:"max_calories"`
	SortBy      *string  `json:"sort_by"`
	SortOrder   *string  `json:"sort_order"`
}
