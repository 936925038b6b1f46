// Package catalog holds the species reference table the form picks from.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"tree-tracker/models"
)

// MinSearchTermLength is the shortest query that filters the catalog.
// Shorter queries return everything.
const MinSearchTermLength = 3

// genusMarker tags entries that stand for a whole genus ("Oak spp").
const genusMarker = "spp"

//go:embed data/species.json
var bundledSpecies []byte

// Catalog is an immutable, in-memory species table. It is safe for
// concurrent use because nothing mutates it after construction.
type Catalog struct {
	records []models.Species
	byID    map[string]int
}

// New builds a Catalog over records, keeping their order. IDs must be
// unique and non-empty.
func New(records []models.Species) (*Catalog, error) {
	c := &Catalog{
		records: make([]models.Species, len(records)),
		byID:    make(map[string]int, len(records)),
	}
	copy(c.records, records)

	for i, r := range c.records {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("catalog: record %d (%q) has no ID", i, r.Common)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate species ID %q", r.ID)
		}
		c.byID[r.ID] = i
	}
	return c, nil
}

// Default returns the catalog bundled into the binary.
func Default() (*Catalog, error) {
	return parse(bundledSpecies)
}

// Load reads a species JSON array from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var records []models.Species
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("catalog: decode species data: %w", err)
	}
	return New(records)
}

// Len returns the number of species.
func (c *Catalog) Len() int {
	return len(c.records)
}

// All returns a copy of every record in catalog order.
func (c *Catalog) All() []models.Species {
	out := make([]models.Species, len(c.records))
	copy(out, c.records)
	return out
}

// Search returns the records whose common or scientific name contains
// query, ignoring case, in catalog order. Queries shorter than
// MinSearchTermLength (after trimming) return the full catalog.
func (c *Catalog) Search(query string) []models.Species {
	needle := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(needle)) < MinSearchTermLength {
		return c.All()
	}

	out := make([]models.Species, 0)
	for _, r := range c.records {
		if matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

// LookupByID returns the record with the given ID.
func (c *Catalog) LookupByID(id string) (models.Species, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Species{}, false
	}
	return c.records[i], true
}

// LookupByCode returns the first record with the given i-Tree code.
func (c *Catalog) LookupByCode(code string) (models.Species, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, r := range c.records {
		if strings.ToUpper(r.ITreeCode) == code {
			return r, true
		}
	}
	return models.Species{}, false
}

// SortedByCommon returns every record ordered by common name.
func (c *Catalog) SortedByCommon() []models.Species {
	out := c.All()
	sortByCommon(out)
	return out
}

// Genera returns the genus-level entries matching query, by common name.
func (c *Catalog) Genera(query string) []models.Species {
	return c.browse(query, true)
}

// Species returns the species-level entries matching query, by common name.
func (c *Catalog) Species(query string) []models.Species {
	return c.browse(query, false)
}

// InGenus returns the species-level entries of genus, by common name.
func (c *Catalog) InGenus(genus string) []models.Species {
	out := make([]models.Species, 0)
	for _, r := range c.records {
		if !IsGenus(r) && strings.EqualFold(r.Genus, genus) {
			out = append(out, r)
		}
	}
	sortByCommon(out)
	return out
}

// IsGenus reports whether r stands for a whole genus rather than a species.
func IsGenus(r models.Species) bool {
	return strings.Contains(r.Common, genusMarker)
}

func (c *Catalog) browse(query string, genera bool) []models.Species {
	out := make([]models.Species, 0)
	for _, r := range c.Search(query) {
		if IsGenus(r) == genera {
			out = append(out, r)
		}
	}
	sortByCommon(out)
	return out
}

func matches(r models.Species, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(r.Common), lowerNeedle) ||
		strings.Contains(strings.ToLower(r.Scientific), lowerNeedle)
}

func sortByCommon(records []models.Species) {
	sort.SliceStable(records, func(i, j int) bool {
		return strings.ToLower(records[i].Common) < strings.ToLower(records[j].Common)
	})
}
