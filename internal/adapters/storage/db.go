package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every store when a lookup by key finds no row.
var ErrNotFound = errors.New("not found")

// baselineSchema holds the eight parking collections plus the credential table.
// Times are TEXT in the fixed-width UTC layout of FormatTime so they compare lexically.
const baselineSchema = `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS parking_lots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		max_capacity INTEGER NOT NULL,
		latitude REAL NOT NULL DEFAULT 0,
		longitude REAL NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		inactive_description TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS parking_schedules (
		id TEXT PRIMARY KEY,
		day_of_week TEXT NOT NULL,
		open_time TEXT,
		closed_time TEXT,
		is_closed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS parking_attendants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS parking_assignments (
		id TEXT PRIMARY KEY,
		parking_lot_id TEXT NOT NULL,
		parking_schedule_id TEXT NOT NULL,
		parking_attendant_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT,
		FOREIGN KEY (parking_lot_id) REFERENCES parking_lots(id),
		FOREIGN KEY (parking_schedule_id) REFERENCES parking_schedules(id),
		FOREIGN KEY (parking_attendant_id) REFERENCES parking_attendants(id)
	);

	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		qr_code_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		nim TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		plate TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT,
		FOREIGN KEY (student_id) REFERENCES students(id)
	);

	CREATE TABLE IF NOT EXISTS parking_histories (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		parked_at TEXT,
		exited_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS parking_activities (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		parking_lot_id TEXT NOT NULL,
		parking_history_id TEXT NOT NULL,
		vehicle_in_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_day ON parking_schedules(day_of_week, deleted_at);
	CREATE INDEX IF NOT EXISTS idx_assignments_lot ON parking_assignments(parking_lot_id, deleted_at);
	CREATE INDEX IF NOT EXISTS idx_assignments_schedule ON parking_assignments(parking_schedule_id, deleted_at);
	CREATE INDEX IF NOT EXISTS idx_assignments_attendant ON parking_assignments(parking_attendant_id, deleted_at);
	CREATE INDEX IF NOT EXISTS idx_vehicles_student ON vehicles(student_id, deleted_at);
	CREATE INDEX IF NOT EXISTS idx_activities_created ON parking_activities(created_at);
	`

// InitDB applies connection pragmas and brings the schema to the latest version.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// WAL is ignored by in-memory databases, which is fine for tests.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return MigrateDB(db, ":memory:")
}
