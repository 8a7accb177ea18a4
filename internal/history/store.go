// Package history provides SQLite-based storage of generated broadcasts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Schema is the SQLite schema for broadcast history.
const Schema = `
CREATE TABLE IF NOT EXISTS broadcasts (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    topics       TEXT NOT NULL,
    mode         TEXT NOT NULL,
    script       TEXT NOT NULL,
    audio_path   TEXT,
    content_type TEXT,
    backend      TEXT,
    created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_broadcasts_created ON broadcasts(created_at);
`

// Broadcast is one stored pipeline run.
type Broadcast struct {
	ID          int64     `json:"id"`
	Topics      []string  `json:"topics"`
	Mode        string    `json:"mode"`
	Script      string    `json:"script"`
	AudioPath   string    `json:"audio_path"`
	ContentType string    `json:"content_type"`
	Backend     string    `json:"backend"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store provides broadcast persistence.
type Store struct {
	db *sql.DB
}

// New creates a Store and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save stores a broadcast and fills in its ID.
func (s *Store) Save(ctx context.Context, b *Broadcast) error {
	topics, err := json.Marshal(b.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO broadcasts (topics, mode, script, audio_path, content_type, backend)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(topics), b.Mode, b.Script, b.AudioPath, b.ContentType, b.Backend)
	if err != nil {
		return fmt.Errorf("insert broadcast: %w", err)
	}

	b.ID, _ = res.LastInsertId()
	return nil
}

// Latest retrieves the most recent broadcast, or nil when none exist.
func (s *Store) Latest(ctx context.Context) (*Broadcast, error) {
	rows, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Recent retrieves up to limit broadcasts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Broadcast, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topics, mode, script, audio_path, content_type, backend, created_at
		FROM broadcasts ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Broadcast
	for rows.Next() {
		var b Broadcast
		var topicsJSON string
		if err := rows.Scan(&b.ID, &topicsJSON, &b.Mode, &b.Script, &b.AudioPath, &b.ContentType, &b.Backend, &b.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(topicsJSON), &b.Topics)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count returns the total number of stored broadcasts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM broadcasts").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
