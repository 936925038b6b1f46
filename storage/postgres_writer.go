package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS trees (
			id             TEXT PRIMARY KEY,
			user_id        TEXT             NOT NULL DEFAULT '',
			species_code   TEXT             NOT NULL DEFAULT '',
			species_common TEXT             NOT NULL DEFAULT '',
			condition      TEXT             NOT NULL DEFAULT '',
			dbh            TEXT             NOT NULL DEFAULT '',
			latitude       DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
			geohash        TEXT             NOT NULL DEFAULT '',
			record         JSONB            NOT NULL,
			created_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_trees_species ON trees(species_code);
		CREATE INDEX IF NOT EXISTS idx_trees_user    ON trees(user_id);
		CREATE INDEX IF NOT EXISTS idx_trees_geohash ON trees(geohash);
	`,
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	createdAt:   `to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`,
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(db, postgresDialect)
}
