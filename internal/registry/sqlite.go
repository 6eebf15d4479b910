package registry

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS domains (
	name     TEXT PRIMARY KEY,
	added_at INTEGER NOT NULL
)`

// SQLiteStore keeps domains in an SQLite key set.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// private in-memory store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("registry: mkdir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("registry: exec %q: %w", stmt, err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Record inserts domain, ignoring duplicates.
func (s *SQLiteStore) Record(ctx context.Context, domain string) error {
	domain, err := checkEntry(domain)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO domains (name, added_at) VALUES (?, ?)`,
		domain, s.now().Unix())
	if err != nil {
		return fmt.Errorf("registry: insert %s: %w", domain, err)
	}
	return nil
}

// All yields domains in insertion order.
func (s *SQLiteStore) All(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT name FROM domains ORDER BY added_at, rowid`)
		if err != nil {
			yield("", fmt.Errorf("registry: query: %w", err))
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				yield("", fmt.Errorf("registry: scan: %w", err))
				return
			}
			if !yield(name, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", fmt.Errorf("registry: rows: %w", err))
		}
	}
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
