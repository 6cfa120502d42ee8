package store

import "fmt"

// migration is one idempotent schema step. Versions are applied in order and
// recorded in schema_migrations, so re-running at startup is a no-op.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create positions",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS positions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				owner INTEGER NOT NULL,
				ticker TEXT NOT NULL,
				strategy TEXT NOT NULL,
				short_strike TEXT NOT NULL,
				long_strike TEXT,
				entry_credit TEXT NOT NULL,
				open_date TEXT NOT NULL,
				expiry_date TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'OPEN',
				closed_date TEXT
			)`,
		},
	},
	{
		version: 2,
		name:    "hot-path indices",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_positions_owner_ticker_status
				ON positions (owner, ticker, status)`,
			`CREATE INDEX IF NOT EXISTS idx_positions_owner_status
				ON positions (owner, status)`,
		},
	},
}

// Migrate applies the ordered migration list exactly once per version.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}

		s.log.Info().Int("version", m.version).Str("name", m.name).Msg("Applied migration")
	}

	return nil
}
