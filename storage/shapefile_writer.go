package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"tree-tracker/models"
)

// dBase field names are limited to 10 characters.
var shapeFields = []shp.Field{
	shp.StringField("TREE_ID", 36),
	shp.StringField("SPECIES", 12),
	shp.StringField("COMMON", 60),
	shp.FloatField("DBH", 10, 2),
	shp.StringField("CONDITION", 20),
	shp.StringField("CLE", 40),
	shp.StringField("CITY", 40),
	shp.StringField("STATE", 4),
	shp.StringField("GEOHASH", 12),
	shp.StringField("CO2_SEQ", 20),
	shp.StringField("RUNOFF", 20),
}

// ShapefileWriter exports entries as a point shapefile (.shp/.shx/.dbf)
// for GIS tools. Entries are written with longitude as X and latitude as Y.
type ShapefileWriter struct {
	writer *shp.Writer
	rows   int
}

// NewShapefileWriter creates the shapefile set rooted at path.
func NewShapefileWriter(path string) (*ShapefileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("shapefile: create output dir: %w", err)
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return nil, fmt.Errorf("shapefile: create %q: %w", path, err)
	}
	if err := w.SetFields(shapeFields); err != nil {
		w.Close()
		return nil, fmt.Errorf("shapefile: set fields: %w", err)
	}
	return &ShapefileWriter{writer: w}, nil
}

// Export writes one point per entry.
func (s *ShapefileWriter) Export(entries []*models.TreeEntry) error {
	for _, e := range entries {
		row := int(s.writer.Write(&shp.Point{X: e.Coords.Longitude, Y: e.Coords.Latitude}))

		dbh, _ := strconv.ParseFloat(strings.TrimSpace(models.Deref(e.DBH)), 64)
		values := []any{
			e.ID,
			e.SpeciesCode,
			e.SpeciesNameCommon,
			dbh,
			e.TreeConditionCategory,
			e.CrownLightExposureCategory,
			models.Deref(e.CityName),
			models.Deref(e.StateAbbr),
			e.Geohash,
			e.BenefitDisplay(models.BenefitCO2Sequestered),
			e.BenefitDisplay(models.BenefitRunoffAvoided),
		}
		for field, v := range values {
			if str, ok := v.(string); ok {
				v = truncate(str, int(shapeFields[field].Size))
			}
			if err := s.writer.WriteAttribute(row, field, v); err != nil {
				return fmt.Errorf("shapefile: write attribute %d of %s: %w", field, e.ID, err)
			}
		}
		s.rows++
	}
	return nil
}

// Rows returns the number of points written so far.
func (s *ShapefileWriter) Rows() int {
	return s.rows
}

func (s *ShapefileWriter) Close() error {
	s.writer.Close()
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := 0
	for i := range s {
		if i > n {
			break
		}
		end = i
	}
	return s[:end]
}
