package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by SQLite. Use ":memory:" as the DSN
// for an ephemeral store, or a file path for a persistent one.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	stream_id TEXT NOT NULL,
	version   INTEGER NOT NULL,
	id        TEXT NOT NULL,
	type      TEXT NOT NULL,
	data      TEXT,
	timestamp TEXT NOT NULL,
	UNIQUE (stream_id, version)
);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
`

// NewSQLiteStore opens (creating if needed) a SQLite-backed store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and
	// serializes writers, which is all the chain needs.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store. The version check and all inserts run in one
// transaction, so a conflicting or failed append writes nothing.
func (s *SQLiteStore) Append(ctx context.Context, streamID string, expectedVersion int, events []*Event) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	var current int
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), -1) FROM events WHERE stream_id = ?`, streamID)
	if err := row.Scan(&current); err != nil {
		return 0, fmt.Errorf("journal: read stream version: %w", err)
	}
	if expectedVersion != current {
		return 0, ErrConcurrencyConflict
	}

	for i, ev := range events {
		ev.StreamID = streamID
		ev.Version = current + 1 + i
		var data any
		if len(ev.Data) > 0 {
			data = string(ev.Data)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (stream_id, version, id, type, data, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
			ev.StreamID, ev.Version, ev.ID, ev.Type, data, ev.Timestamp.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return 0, fmt.Errorf("journal: insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: commit: %w", err)
	}
	return current + len(events), nil
}

// Read implements Store.
func (s *SQLiteStore) Read(ctx context.Context, streamID string, fromVersion int) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stream_id, version, id, type, data, timestamp
		 FROM events WHERE stream_id = ? AND version >= ? ORDER BY version`,
		streamID, fromVersion)
	if err != nil {
		return nil, fmt.Errorf("journal: read stream: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ReadAll implements Store.
func (s *SQLiteStore) ReadAll(ctx context.Context, filter EventFilter) ([]*Event, error) {
	query := `SELECT stream_id, version, id, type, data, timestamp FROM events`
	var (
		where []string
		args  []any
	)
	if filter.StreamID != "" {
		where = append(where, "stream_id = ?")
		args = append(args, filter.StreamID)
	}
	if len(filter.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Types)), ", ")
		where = append(where, "type IN ("+placeholders+")")
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: read all: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// StreamVersion implements Store.
func (s *SQLiteStore) StreamVersion(ctx context.Context, streamID string) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), -1) FROM events WHERE stream_id = ?`, streamID)
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("journal: stream version: %w", err)
	}
	return version, nil
}

// DeleteStream implements Store.
func (s *SQLiteStore) DeleteStream(ctx context.Context, streamID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE stream_id = ?`, streamID); err != nil {
		return fmt.Errorf("journal: delete stream: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var out []*Event
	for rows.Next() {
		var (
			ev   Event
			data sql.NullString
			ts   string
		)
		if err := rows.Scan(&ev.StreamID, &ev.Version, &ev.ID, &ev.Type, &data, &ts); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		if data.Valid {
			ev.Data = json.RawMessage(data.String)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("journal: parse timestamp %q: %w", ts, err)
		}
		ev.Timestamp = parsed
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate events: %w", err)
	}
	return out, nil
}
