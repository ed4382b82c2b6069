package graph

import (
	"fmt"
	"strings"
	"time"

	"github.com/skaldra/notedown/internal/notename"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Alias is one indexed (key, display) pair for a note.
type Alias struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

// DanglingLink is a link whose target no alias claims.
type DanglingLink struct {
	Source string `json:"source"` // note path holding the link
	Target string `json:"target"` // link display text
}

// TitleHit is one quick-open match.
type TitleHit struct {
	Display string `json:"title"`
	Path    string `json:"path"`
}

// UpsertNote replaces a note row, its aliases, and its outgoing links
// within a transaction.
func (db *DB) UpsertNote(n NoteRow, aliases []Alias, linkNames []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("graph: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("graph: upsert note: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM aliases WHERE path = ?`, n.Path)
	for _, a := range aliases {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO aliases (key, display, path) VALUES (?, ?, ?)`,
			a.Key, a.Display, n.Path); err != nil {
			return fmt.Errorf("graph: insert alias: %w", err)
		}
	}

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	if len(linkNames) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target_key, display) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("graph: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, name := range linkNames {
			if _, err := stmt.Exec(n.Path, notename.Key(name), name); err != nil {
				return fmt.Errorf("graph: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its aliases, and its outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("graph: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM aliases WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// AllChecksums returns path→checksum for every stored note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("graph: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListNotes returns every stored note ordered by path.
func (db *DB) ListNotes() ([]NoteRow, error) {
	rows, err := db.conn.Query(`SELECT path, title, checksum, updated_at FROM notes ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("graph: list notes: %w", err)
	}
	defer rows.Close()
	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		if err := rows.Scan(&n.Path, &n.Title, &n.Checksum, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Backlinks returns the paths of all notes linking to the given name,
// ordered by path.
func (db *DB) Backlinks(targetName string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT source FROM links WHERE target_key = ? ORDER BY source`,
		notename.Key(targetName))
	if err != nil {
		return nil, fmt.Errorf("graph: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Dangling returns every link whose target key has no alias, ordered by
// source then target.
func (db *DB) Dangling() ([]DanglingLink, error) {
	rows, err := db.conn.Query(`
		SELECT l.source, l.display
		FROM links l
		LEFT JOIN aliases a ON a.key = l.target_key
		WHERE a.key IS NULL
		ORDER BY l.source, l.display
	`)
	if err != nil {
		return nil, fmt.Errorf("graph: dangling: %w", err)
	}
	defer rows.Close()

	var out []DanglingLink
	for rows.Next() {
		var d DanglingLink
		if err := rows.Scan(&d.Source, &d.Target); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SearchTitles returns aliases containing the query, case-insensitively,
// ordered by display title. Plain substring lookup: ranking is out of
// scope for quick-open.
func (db *DB) SearchTitles(query string, limit int) ([]TitleHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.ToLower(query) + "%"
	rows, err := db.conn.Query(`
		SELECT display, path FROM aliases
		WHERE key LIKE ?
		ORDER BY display
		LIMIT ?
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("graph: search titles: %w", err)
	}
	defer rows.Close()

	var out []TitleHit
	for rows.Next() {
		var h TitleHit
		if err := rows.Scan(&h.Display, &h.Path); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
