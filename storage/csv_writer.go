package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"tree-tracker/models"
)

// csvHeader lists the exported columns. Benefit columns follow the fixed
// ones, in display order.
var csvHeader = []string{
	"id", "user_id", "username", "species_code", "species_common", "species_scientific",
	"dbh", "estimated_dbh", "condition", "crown_light_exposure", "tree_type",
	"land_use", "location_type", "latitude", "longitude", "geohash",
	"nation", "state", "county", "city", "validated", "created_at",
	models.BenefitCO2Sequestered, models.BenefitCO2SequesteredValue,
	models.BenefitRunoffAvoided, models.BenefitRunoffAvoidedValue,
	models.BenefitCarbonStorage, models.BenefitCORemovedValue,
}

// CSVWriter writes tree entries to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Export appends one row per entry.
func (c *CSVWriter) Export(entries []*models.TreeEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		if err := c.writer.Write(csvRow(e)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func csvRow(e *models.TreeEntry) []string {
	created := ""
	if e.CreatedAt != nil {
		created = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		e.ID,
		e.UserID,
		e.Username,
		e.SpeciesCode,
		e.SpeciesNameCommon,
		e.SpeciesNameScientific,
		models.Deref(e.DBH),
		strconv.FormatBool(e.EstimatedDBH),
		e.TreeConditionCategory,
		e.CrownLightExposureCategory,
		e.TreeType,
		e.LandUseCategory,
		e.LocationType,
		strconv.FormatFloat(e.Coords.Latitude, 'f', 6, 64),
		strconv.FormatFloat(e.Coords.Longitude, 'f', 6, 64),
		e.Geohash,
		models.Deref(e.NationFullName),
		models.Deref(e.StateAbbr),
		models.Deref(e.CountyName),
		models.Deref(e.CityName),
		string(e.IsValidated),
		created,
		e.BenefitDisplay(models.BenefitCO2Sequestered),
		e.BenefitDisplay(models.BenefitCO2SequesteredValue),
		e.BenefitDisplay(models.BenefitRunoffAvoided),
		e.BenefitDisplay(models.BenefitRunoffAvoidedValue),
		e.BenefitDisplay(models.BenefitCarbonStorage),
		e.BenefitDisplay(models.BenefitCORemovedValue),
	}
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
