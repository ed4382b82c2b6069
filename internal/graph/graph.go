// Package graph maintains a SQLite-backed mirror of the corpus link
// structure, serving backlink queries, corpus-wide dangling-link
// reports, and title lookup for quick-open.
package graph

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS aliases (
	key     TEXT NOT NULL,
	display TEXT NOT NULL,
	path    TEXT NOT NULL,
	UNIQUE(key, path)
);

CREATE TABLE IF NOT EXISTS links (
	source     TEXT NOT NULL,
	target_key TEXT NOT NULL,
	display    TEXT NOT NULL DEFAULT '',
	UNIQUE(source, target_key)
);

CREATE INDEX IF NOT EXISTS idx_aliases_key   ON aliases(key);
CREATE INDEX IF NOT EXISTS idx_links_source  ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target  ON links(target_key);
`

// LinkGraph defines the link-graph store operations. Consumers should
// depend on this interface rather than the concrete *DB type.
type LinkGraph interface {
	UpsertNote(n NoteRow, aliases []Alias, linkNames []string) error
	DeleteNote(path string) error
	AllChecksums() (map[string]string, error)
	ListNotes() ([]NoteRow, error)
	Backlinks(targetName string) ([]string, error)
	Dangling() ([]DanglingLink, error)
	SearchTitles(query string, limit int) ([]TitleHit, error)
	Close() error
}

// Verify *DB satisfies LinkGraph at compile time.
var _ LinkGraph = (*DB)(nil)

// DB wraps a sql.DB with link-graph operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("graph: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graph: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graph: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
