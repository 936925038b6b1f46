package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tree-tracker/models"
)

func sampleSpecies() []models.Species {
	return []models.Species{
		{ID: "1", Common: "Oak spp", Scientific: "Quercus spp", Genus: "Quercus", ITreeCode: "QU"},
		{ID: "2", Common: "Northern red oak", Scientific: "Quercus rubra", Genus: "Quercus", ITreeCode: "QURU"},
		{ID: "3", Common: "Red maple", Scientific: "Acer rubrum", Genus: "Acer", ITreeCode: "ACRU"},
		{ID: "4", Common: "Coast live oak", Scientific: "Quercus agrifolia", Genus: "Quercus", ITreeCode: "QUAG"},
		{ID: "5", Common: "Ginkgo", Scientific: "Ginkgo biloba", Genus: "Ginkgo", ITreeCode: "GIBI"},
	}
}

func newSample(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(sampleSpecies())
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return c
}

func ids(records []models.Species) string {
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = r.ID
	}
	return strings.Join(parts, ",")
}

func TestSearchShortQueryReturnsFullCatalog(t *testing.T) {
	c := newSample(t)

	for _, q := range []string{"", " ", "o", "oa", "  oa  ", "ÖK"} {
		got := c.Search(q)
		if ids(got) != "1,2,3,4,5" {
			t.Errorf("Search(%q) = %s; want full catalog in order", q, ids(got))
		}
	}
}

func TestSearchFiltersCaseInsensitively(t *testing.T) {
	c := newSample(t)

	tests := []struct {
		query string
		want  string
	}{
		{"oak", "1,2,4"},
		{"OAK", "1,2,4"},
		{"quercus", "1,2,4"},
		{"RUBR", "2,3"},
		{" ginkgo ", "5"},
		{"palm", ""},
	}

	for _, tt := range tests {
		if got := ids(c.Search(tt.query)); got != tt.want {
			t.Errorf("Search(%q) = %s; want %s", tt.query, got, tt.want)
		}
	}
}

func TestSearchResultsContainQueryAndAreIdempotent(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}

	for _, q := range []string{"oak", "Maple", "acer", "elm", "spp", "pine", "zzz"} {
		first := c.Search(q)
		lower := strings.ToLower(q)
		for _, r := range first {
			if !strings.Contains(strings.ToLower(r.Common), lower) &&
				!strings.Contains(strings.ToLower(r.Scientific), lower) {
				t.Errorf("Search(%q) returned %q which does not contain the query", q, r.Common)
			}
		}

		sub, err := New(first)
		if err != nil {
			t.Fatalf("catalog from results: %v", err)
		}
		if ids(sub.Search(q)) != ids(first) {
			t.Errorf("Search(%q) is not idempotent", q)
		}
	}
}

func TestLookupByID(t *testing.T) {
	c := newSample(t)

	r, ok := c.LookupByID("3")
	if !ok || r.Common != "Red maple" {
		t.Errorf("LookupByID(3) = %+v, %v", r, ok)
	}
	if _, ok := c.LookupByID("missing"); ok {
		t.Error("LookupByID(missing) should report not found")
	}
}

func TestLookupByCode(t *testing.T) {
	c := newSample(t)
	r, ok := c.LookupByCode("quru")
	if !ok || r.ID != "2" {
		t.Errorf("LookupByCode(quru) = %+v, %v", r, ok)
	}
}

func TestNewRejectsDuplicateAndEmptyIDs(t *testing.T) {
	dup := append(sampleSpecies(), models.Species{ID: "2", Common: "Again"})
	if _, err := New(dup); err == nil {
		t.Error("expected duplicate ID error")
	}
	if _, err := New([]models.Species{{Common: "Nameless"}}); err == nil {
		t.Error("expected empty ID error")
	}
}

func TestCatalogIsNotAffectedByCallerMutation(t *testing.T) {
	c := newSample(t)
	all := c.All()
	all[0].Common = "changed"
	if r, _ := c.LookupByID("1"); r.Common != "Oak spp" {
		t.Errorf("catalog mutated through All(): %q", r.Common)
	}
}

func TestBrowse(t *testing.T) {
	c := newSample(t)

	if got := ids(c.Genera("")); got != "1" {
		t.Errorf("Genera = %s; want 1", got)
	}
	if got := ids(c.Species("")); got != "4,5,2,3" {
		t.Errorf("Species = %s; want 4,5,2,3 (alphabetical)", got)
	}
	if got := ids(c.InGenus("quercus")); got != "4,2" {
		t.Errorf("InGenus(quercus) = %s; want 4,2", got)
	}
	if got := ids(c.SortedByCommon()); got != "4,5,2,1,3" {
		t.Errorf("SortedByCommon = %s", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.json")
	data := `[{"ID":"9","COMMON":"Ginkgo","SCIENTIFIC":"Ginkgo biloba","GENUS":"Ginkgo","ITREECODE":"GIBI"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r, ok := c.LookupByID("9")
	if !ok || r.ITreeCode != "GIBI" {
		t.Errorf("loaded record = %+v, %v", r, ok)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("bundled catalog is empty")
	}
	for _, r := range c.All() {
		if r.ITreeCode == "" {
			t.Errorf("species %s has no i-Tree code", r.ID)
		}
	}
}
