package services

import (
	"context"
	"errors"
	"sync"

	"tree-tracker/catalog"
	"tree-tracker/models"
	"tree-tracker/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

// memoryStore is an in-memory storage.TreeWriter.
type memoryStore struct {
	mu      sync.Mutex
	entries []*models.TreeEntry
	fail    error
}

func (m *memoryStore) Add(_ context.Context, e *models.TreeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) snapshot() []*models.TreeEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.TreeEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

var errStoreDown = errors.New("store unavailable")

func mustCatalog() *catalog.Catalog {
	cat, err := catalog.Default()
	if err != nil {
		panic(err)
	}
	return cat
}

func oakForm() models.TreeForm {
	return models.TreeForm{
		UserID:             "u-1",
		Username:           "  alice  ",
		Coords:             &models.Coordinates{Latitude: 37.7749, Longitude: -122.4194},
		SpeciesID:          "8",
		DBH:                " 12 ",
		Condition:          "Good",
		CrownLightExposure: "Full",
		TreeType:           "street   tree",
		Notes:              "",
		Device:             models.DeviceInfo{ModelName: "Pixel 8", OSName: "Android"},
	}
}

func caAddress() *models.ResolvedAddress {
	return &models.ResolvedAddress{Country: "US", Region: "California", County: "San Francisco County", City: "San Francisco"}
}
