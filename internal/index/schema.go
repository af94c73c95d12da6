// Package index keeps a SQLite catalog of stored reports with their tag and
// entity facets. The report files remain the source of truth; the catalog
// is rebuilt from them at any time.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reports (
	filename   TEXT PRIMARY KEY,
	respondent TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	size_bytes INTEGER NOT NULL DEFAULT 0,
	tags       TEXT NOT NULL DEFAULT '[]',
	entities   TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS report_tags (
	filename TEXT NOT NULL,
	tag      TEXT NOT NULL,
	tag_key  TEXT NOT NULL,
	UNIQUE(filename, tag_key)
);

CREATE TABLE IF NOT EXISTS report_entities (
	filename TEXT NOT NULL,
	entity   TEXT NOT NULL,
	UNIQUE(filename, entity)
);

CREATE INDEX IF NOT EXISTS idx_report_tags_key ON report_tags(tag_key);
CREATE INDEX IF NOT EXISTS idx_report_entities_entity ON report_entities(entity);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
