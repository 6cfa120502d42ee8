package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store is the persistent position store. One long-lived handle for the
// whole process; every read/write goes through it.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// New opens (creating if needed) the sqlite database at dbPath and applies
// pending migrations.
func New(dbPath string, log zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode so the listener and the scheduler can read concurrently.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1) // sqlite: serialize writers through one connection
	db.SetMaxIdleConns(1)

	s := &Store{
		db:  db,
		log: log.With().Str("component", "store").Logger(),
	}

	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle, mainly for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
