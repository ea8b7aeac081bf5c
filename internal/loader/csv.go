// Package loader reads the source CSV into raw records. It is deliberately
// lenient: headers are matched case-insensitively with unit suffixes
// tolerated, and rows with a deviating column count are kept rather than
// rejected so the cleaner can decide what to drop.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonesrussell/diet-data/internal/models"
)

// ErrSourceNotFound is returned when the source file does not exist.
var ErrSourceNotFound = errors.New("dataset file not found")

// CSVLoader reads raw records from a CSV file on disk.
type CSVLoader struct {
	path string
}

func New(path string) *CSVLoader {
	return &CSVLoader{path: path}
}

// Path returns the configured source file path.
func (l *CSVLoader) Path() string {
	return l.path
}

// Exists reports whether the source file is present on disk.
func (l *CSVLoader) Exists() bool {
	info, err := os.Stat(l.path)
	return err == nil && !info.IsDir()
}

// Load reads every row of the source file into raw records.
func (l *CSVLoader) Load() ([]models.RawRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, l.path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads CSV rows from r. The first row is treated as the header.
func Parse(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // source schema is not guaranteed consistent
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := indexColumns(header)

	var records []models.RawRecord
	for {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read csv row: %w", readErr)
		}

		records = append(records, models.RawRecord{
			RecipeName:     cols.get(row, "recipe_name"),
			DietType:       cols.get(row, "diet_type"),
			CuisineType:    cols.get(row, "cuisine_type"),
			Protein:        cols.get(row, "protein"),
			Carbs:          cols.get(row, "carbs"),
			Fat:            cols.get(row, "fat"),
			ExtractionDay:  cols.get(row, "extraction_day"),
			ExtractionTime: cols.get(row, "extraction_time"),
		})
	}

	return records, nil
}

type columnIndex map[string]int

func (c columnIndex) get(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// indexColumns maps normalized header names to their positions. "Protein(g)"
// and "protein_g" both normalize to "protein".
func indexColumns(header []string) columnIndex {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		if key := normalizeHeader(name); key != "" {
			if _, seen := cols[key]; !seen {
				cols[key] = i
			}
		}
	}
	return cols
}

func normalizeHeader(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, "(g)")
	key = strings.TrimSuffix(key, "_g")
	return strings.TrimSpace(key)
}
