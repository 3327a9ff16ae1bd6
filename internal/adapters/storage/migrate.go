package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// migration upgrades the schema by one version inside tx.
type migration func(tx *sql.Tx) error

// migrations are applied in order; index i produces version i+1.
// Append only: never edit a migration that has shipped.
var migrations = []migration{
	func(tx *sql.Tx) error {
		_, err := tx.Exec(baselineSchema)
		return err
	},
}

// LatestSchemaVersion is the version MigrateDB converges to.
func LatestSchemaVersion() int {
	return len(migrations)
}

// SchemaVersion reports the applied version, 0 for an untracked database.
// PRE: db is open
// POST: returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies pending migrations, each in its own transaction.
// For a file database that already carries data, a snapshot is written next to
// path with VACUUM INTO before the first pending migration runs.
// PRE: db is open; path is the database file or ":memory:"
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, path string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}
	if current > 0 && path != "" && path != ":memory:" {
		backup := fmt.Sprintf("%s.pre-v%d.bak", path, current+1)
		if _, err := db.Exec("VACUUM INTO ?", backup); err != nil {
			return fmt.Errorf("failed to snapshot database before migration: %w", err)
		}
		slog.Info("migration_event", "event", "snapshot_written", "path", backup)
	}
	for v := current; v < LatestSchemaVersion(); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)", v+1, FormatTime(time.Now())); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", v+1, err)
		}
		slog.Info("migration_event", "event", "applied", "version", v+1)
	}
	return nil
}
