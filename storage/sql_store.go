package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tree-tracker/models"
)

// dialect captures the few places PostgreSQL and SQLite disagree.
type dialect struct {
	name        string
	schema      string
	placeholder func(n int) string
	createdAt   string
}

// SQLStore keeps tree entries in a relational database. The full record is
// stored as JSON next to a handful of indexed columns; created_at comes
// from the database clock.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var (
	_ TreeStore   = (*SQLStore)(nil)
	_ TreeCounter = (*SQLStore)(nil)
)

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", d.name, err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(s.dialect.schema)
	return err
}

// Add inserts entry. Re-adding an existing ID is a no-op.
func (s *SQLStore) Add(ctx context.Context, entry *models.TreeEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("%s: add: entry has no ID", s.dialect.name)
	}

	stored := *entry
	stored.CreatedAt = nil
	record, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("%s: encode record: %w", s.dialect.name, err)
	}

	cols := []string{
		"id", "user_id", "species_code", "species_common", "condition",
		"dbh", "latitude", "longitude", "geohash", "record",
	}
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = s.dialect.placeholder(i + 1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING`,
		TreesCollection, strings.Join(cols, ", "), strings.Join(marks, ", "))

	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.SpeciesCode, entry.SpeciesNameCommon,
		entry.TreeConditionCategory, models.Deref(entry.DBH),
		entry.Coords.Latitude, entry.Coords.Longitude, entry.Geohash, string(record),
	)
	if err != nil {
		return fmt.Errorf("%s: insert tree %s: %w", s.dialect.name, entry.ID, err)
	}
	return nil
}

// FetchAll returns every stored entry, oldest first.
func (s *SQLStore) FetchAll(ctx context.Context) ([]*models.TreeEntry, error) {
	query := fmt.Sprintf(`SELECT record, %s FROM %s ORDER BY created_at, id`,
		s.dialect.createdAt, TreesCollection)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var entries []*models.TreeEntry
	for rows.Next() {
		var (
			record    []byte
			createdAt string
		)
		if err := rows.Scan(&record, &createdAt); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.dialect.name, err)
		}
		e := &models.TreeEntry{}
		if err := json.Unmarshal(record, e); err != nil {
			return nil, fmt.Errorf("%s: decode record: %w", s.dialect.name, err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = &ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TreesCollection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: count: %w", s.dialect.name, err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
