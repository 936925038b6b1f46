package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"

	"tree-tracker/models"
)

func sampleEntry(id string) *models.TreeEntry {
	e := &models.TreeEntry{
		ID:                         id,
		UserID:                     "u-1",
		Username:                   "alice",
		Coords:                     models.Coordinates{Latitude: 37.7749, Longitude: -122.4194},
		Geohash:                    "9q8yyk8",
		SpeciesID:                  "8",
		SpeciesCode:                "QURU",
		SpeciesNameCommon:          "Northern red oak",
		SpeciesNameScientific:      "Quercus rubra",
		DBH:                        models.StringPtr("12"),
		TreeConditionCategory:      "Good",
		CrownLightExposureCategory: "Full",
		IsValidated:                models.NotValidated,
		CityName:                   models.StringPtr("San Francisco"),
		StateAbbr:                  models.StringPtr("CA"),
	}
	e.CO2Sequestered = models.StringPtr("48.61 lbs")
	return e
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "trees.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreAddAndFetch(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	if err := s.Add(ctx, sampleEntry("a")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, sampleEntry("b")); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("order: got %s, %s", got[0].ID, got[1].ID)
	}
	e := got[0]
	if e.SpeciesCode != "QURU" || models.Deref(e.DBH) != "12" || e.CO2Sequestered == nil || *e.CO2Sequestered != "48.61 lbs" {
		t.Errorf("round trip lost fields: %+v", e)
	}
	if e.Notes != nil {
		t.Errorf("notes should stay null, got %q", *e.Notes)
	}
	if e.CreatedAt == nil || e.CreatedAt.IsZero() {
		t.Error("created_at should be assigned by the store")
	}
}

func TestSQLiteStoreIgnoresDuplicateID(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	first := sampleEntry("dup")
	second := sampleEntry("dup")
	second.SpeciesCode = "ACRU"

	if err := s.Add(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, second); err != nil {
		t.Fatalf("duplicate add should be a no-op, got %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count: got %d, want 1", n)
	}
	all, _ := s.FetchAll(ctx)
	if all[0].SpeciesCode != "QURU" {
		t.Errorf("first write should win, got %s", all[0].SpeciesCode)
	}
}

func TestSQLiteStoreRejectsMissingID(t *testing.T) {
	s := openSQLite(t)
	if err := s.Add(context.Background(), &models.TreeEntry{}); err == nil {
		t.Error("expected error for entry without ID")
	}
}

func TestCSVWriterExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trees.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Export([]*models.TreeEntry{sampleEntry("a"), sampleEntry("b")}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[1][0] != "a" {
		t.Errorf("unexpected first column: %q / %q", rows[0][0], rows[1][0])
	}
	col := -1
	for i, h := range rows[0] {
		if h == models.BenefitCO2Sequestered {
			col = i
		}
	}
	if col < 0 || rows[1][col] != "48.61 lbs" {
		t.Errorf("CO2Sequestered column missing or wrong")
	}
}

func TestShapefileWriterExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.shp")
	w, err := NewShapefileWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Export([]*models.TreeEntry{sampleEntry("a")}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if w.Rows() != 1 {
		t.Errorf("rows: got %d", w.Rows())
	}
	_ = w.Close()

	r, err := shp.Open(path)
	if err != nil {
		t.Fatalf("open shapefile: %v", err)
	}
	defer r.Close()

	if !r.Next() {
		t.Fatal("expected one shape")
	}
	n, shape := r.Shape()
	p, ok := shape.(*shp.Point)
	if !ok {
		t.Fatalf("expected point, got %T", shape)
	}
	if p.X != -122.4194 || p.Y != 37.7749 {
		t.Errorf("point: got (%v, %v)", p.X, p.Y)
	}
	if got := strings.TrimRight(r.ReadAttribute(n, 1), " \x00"); got != "QURU" {
		t.Errorf("SPECIES attribute: got %q", got)
	}
}

func TestNewTreeDocument(t *testing.T) {
	doc := NewTreeDocument(sampleEntry("a"))
	if doc.ID != "a" || doc.City != "San Francisco" || doc.Common != "Northern red oak" {
		t.Errorf("unexpected document: %+v", doc)
	}
}
