package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
		CREATE TABLE IF NOT EXISTS trees (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL DEFAULT '',
			species_code   TEXT NOT NULL DEFAULT '',
			species_common TEXT NOT NULL DEFAULT '',
			condition      TEXT NOT NULL DEFAULT '',
			dbh            TEXT NOT NULL DEFAULT '',
			latitude       REAL NOT NULL DEFAULT 0,
			longitude      REAL NOT NULL DEFAULT 0,
			geohash        TEXT NOT NULL DEFAULT '',
			record         TEXT NOT NULL,
			created_at     TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_trees_species ON trees(species_code);
		CREATE INDEX IF NOT EXISTS idx_trees_user    ON trees(user_id);
		CREATE INDEX IF NOT EXISTS idx_trees_geohash ON trees(geohash);
	`,
	placeholder: func(int) string { return "?" },
	createdAt:   `strftime('%Y-%m-%dT%H:%M:%SZ', created_at)`,
}

// NewSQLiteStore opens (or creates) a SQLite database at path and applies
// the schema. Intermediate directories are created automatically.
func NewSQLiteStore(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return newSQLStore(db, sqliteDialect)
}
