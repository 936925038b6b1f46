package storage

import (
	"context"

	"tree-tracker/models"
)

// TreesCollection is the fixed collection (table, index) entries go to.
const TreesCollection = "trees"

// TreeWriter is the interface any sink for submitted entries must satisfy.
type TreeWriter interface {
	Add(ctx context.Context, entry *models.TreeEntry) error
	Close() error
}

// TreeStore is the document store: it accepts entries and can list them
// back with their store-assigned creation time.
type TreeStore interface {
	TreeWriter
	FetchAll(ctx context.Context) ([]*models.TreeEntry, error)
}

// TreeCounter is implemented by stores that can count entries cheaply.
type TreeCounter interface {
	Count(ctx context.Context) (int, error)
}

// TreeExporter writes a snapshot of the inventory to a file format.
type TreeExporter interface {
	Export(entries []*models.TreeEntry) error
	Close() error
}
