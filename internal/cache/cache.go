// Package cache provides a SQLite-backed offline copy of the last-loaded
// memory list, so the timeline can render when the backend is unreachable.
// The cache is replaced wholesale on every successful load and never
// mutated incrementally.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leaflora/memoria/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS memories (
	id         INTEGER PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	event_date DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	type       TEXT NOT NULL DEFAULT 'text',
	media_urls TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_memories_event_date ON memories(event_date);
`

// DB wraps a sql.DB with cache-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the cache database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ReplaceAll swaps the entire cached record set within a transaction.
func (db *DB) ReplaceAll(records []models.MemoryRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM memories`); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO memories (id, title, content, event_date, created_at, type, media_urls)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cache: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		urlsJSON, _ := json.Marshal(r.MediaURLs)
		if _, err := stmt.Exec(
			r.ID, r.Title, r.Content,
			r.EventDate.Format(time.RFC3339), r.CreatedAt.Format(time.RFC3339),
			string(r.Type), string(urlsJSON),
		); err != nil {
			return fmt.Errorf("cache: insert memory %d: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// All returns every cached record ordered by event date.
func (db *DB) All(dir models.SortDirection) ([]models.MemoryRecord, error) {
	order := "DESC"
	if dir == models.SortAscending {
		order = "ASC"
	}
	rows, err := db.conn.Query(
		`SELECT id, title, content, event_date, created_at, type, media_urls
		 FROM memories ORDER BY event_date ` + order)
	if err != nil {
		return nil, fmt.Errorf("cache: query: %w", err)
	}
	defer rows.Close()

	var out []models.MemoryRecord
	for rows.Next() {
		var (
			r                    models.MemoryRecord
			eventDate, createdAt string
			kind, urlsJSON       string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Content, &eventDate, &createdAt, &kind, &urlsJSON); err != nil {
			return nil, fmt.Errorf("cache: scan: %w", err)
		}
		r.Type = models.MediaKind(kind)
		if t, err := time.Parse(time.RFC3339, eventDate); err == nil {
			r.EventDate = models.Timestamp{Time: t}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = models.Timestamp{Time: t}
		}
		if err := json.Unmarshal([]byte(urlsJSON), &r.MediaURLs); err != nil {
			r.MediaURLs = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of cached records.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}
