package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"tree-tracker/models"
)

// TreeDocument is the searchable projection of an entry.
type TreeDocument struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	SpeciesCode string  `json:"species_code"`
	Common      string  `json:"species_common"`
	Scientific  string  `json:"species_scientific"`
	Condition   string  `json:"condition"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	County      string  `json:"county"`
	Notes       string  `json:"notes"`
	Geohash     string  `json:"geohash"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// NewTreeDocument projects entry onto the indexed fields.
func NewTreeDocument(e *models.TreeEntry) TreeDocument {
	return TreeDocument{
		ID:          e.ID,
		UserID:      e.UserID,
		Username:    e.Username,
		SpeciesCode: e.SpeciesCode,
		Common:      e.SpeciesNameCommon,
		Scientific:  e.SpeciesNameScientific,
		Condition:   e.TreeConditionCategory,
		City:        models.Deref(e.CityName),
		State:       models.Deref(e.StateAbbr),
		County:      models.Deref(e.CountyName),
		Notes:       models.Deref(e.Notes),
		Geohash:     e.Geohash,
		Latitude:    e.Coords.Latitude,
		Longitude:   e.Coords.Longitude,
	}
}

// SearchIndex is the full-text side of the inventory.
type SearchIndex interface {
	TreeWriter
	Search(ctx context.Context, query string, limit int64) ([]TreeDocument, error)
}

// MeiliIndex keeps tree documents in a Meilisearch index.
type MeiliIndex struct {
	client    meilisearch.ServiceManager
	indexName string
}

// NewMeiliIndex connects to the Meilisearch server at url.
func NewMeiliIndex(url, key string) *MeiliIndex {
	client := meilisearch.New(url, meilisearch.WithAPIKey(key))
	return &MeiliIndex{client: client, indexName: TreesCollection}
}

// Add queues entry for indexing. Meilisearch applies it asynchronously and
// creates the index with "id" as primary key on first use.
func (m *MeiliIndex) Add(_ context.Context, entry *models.TreeEntry) error {
	docs := []TreeDocument{NewTreeDocument(entry)}
	if _, err := m.client.Index(m.indexName).AddDocuments(docs, "id"); err != nil {
		return fmt.Errorf("meilisearch: index tree %s: %w", entry.ID, err)
	}
	return nil
}

// Search runs a full-text query over the indexed trees.
func (m *MeiliIndex) Search(_ context.Context, query string, limit int64) ([]TreeDocument, error) {
	if limit <= 0 {
		limit = 50
	}
	res, err := m.client.Index(m.indexName).Search(strings.TrimSpace(query), &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch: search %q: %w", query, err)
	}

	var docs []TreeDocument
	for _, hit := range res.Hits {
		data, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc TreeDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *MeiliIndex) Close() error {
	return nil
}
