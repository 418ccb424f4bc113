// Package store manages the SQLite database that holds sleep sessions,
// exercise sessions, and conflict records.
//
// Only this package may open or query the database. All other packages
// receive a [*Store] and call its methods. The live-query surfaces of other
// health stores are deliberately absent: callers get one-shot snapshot reads.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS sleep_sessions (
    id          TEXT PRIMARY KEY,
    bed_time    TEXT    NOT NULL,
    wake_time   TEXT    NOT NULL,
    quality     INTEGER NOT NULL,
    notes       TEXT    NOT NULL DEFAULT '',
    source      TEXT    NOT NULL,
    created_at  TEXT    NOT NULL,
    conflicted  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sleep_bed_time ON sleep_sessions (bed_time);
CREATE INDEX IF NOT EXISTS idx_sleep_source   ON sleep_sessions (source);

CREATE TABLE IF NOT EXISTS exercise_sessions (
    id               TEXT PRIMARY KEY,
    exercise_kind    TEXT    NOT NULL,
    start_time       TEXT    NOT NULL,
    duration_minutes INTEGER NOT NULL,
    intensity        TEXT    NOT NULL,
    calories         INTEGER,
    notes            TEXT    NOT NULL DEFAULT '',
    source           TEXT    NOT NULL,
    created_at       TEXT    NOT NULL,
    conflicted       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_exercise_start_time ON exercise_sessions (start_time);
CREATE INDEX IF NOT EXISTS idx_exercise_source     ON exercise_sessions (source);

CREATE TABLE IF NOT EXISTS conflict_records (
    id             TEXT PRIMARY KEY,
    conflict_kind  TEXT    NOT NULL,
    primary_id     TEXT    NOT NULL,
    conflicting_id TEXT    NOT NULL,
    details        TEXT    NOT NULL,
    resolved       INTEGER NOT NULL DEFAULT 0,
    resolution     TEXT    NOT NULL DEFAULT '',
    created_at     TEXT    NOT NULL,
    resolved_at    TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_conflict_resolved ON conflict_records (resolved);
`

// Store is the SQLite-backed record repository.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default path for the record database:
// ~/.local/share/healthrelay/records.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "healthrelay", "records.db"), nil
}

// Open opens (or creates) the SQLite database at path, applies the schema,
// and configures WAL mode for better concurrent read performance.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// Single writer to avoid SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the schema DDL idempotently (CREATE IF NOT EXISTS).
func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// IsEmpty reports whether both session tables have no rows. Used by the
// first-run bootstrap to detect a fresh install.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	const q = `SELECT (SELECT COUNT(*) FROM sleep_sessions) + (SELECT COUNT(*) FROM exercise_sessions)`
	if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
		return false, fmt.Errorf("checking if store is empty: %w", err)
	}
	return count == 0, nil
}

// --- helpers -----------------------------------------------------------------

// scanner matches both *sql.Row and *sql.Rows so the scan helpers can be
// reused across single- and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
