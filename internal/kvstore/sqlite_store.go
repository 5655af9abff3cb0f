package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/companion/internal/foundation"

	_ "modernc.org/sqlite"
)

const sqliteBackendLabel = "sqlite"

// SQLiteStore implements Store on a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if necessary creates) the database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER) * 1000)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	if err := ValidateKey(key); err != nil {
		return foundation.None[string](), err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return foundation.None[string](), nil
		}
		return foundation.None[string](), wrapStoreErr("get", sqliteBackendLabel, key, err)
	}
	return foundation.Some(value), nil
}

// Set upserts the value for key.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		 updated_at = CAST(strftime('%s','now') AS INTEGER) * 1000`,
		key, value,
	)
	if err != nil {
		return wrapStoreErr("set", sqliteBackendLabel, key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
