package storage

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expectedTables is the sorted list of tables after all migrations.
var expectedTables = []string{
	"account",
	"parking_activities",
	"parking_assignments",
	"parking_attendants",
	"parking_histories",
	"parking_lots",
	"parking_schedules",
	"schema_version",
	"students",
	"vehicles",
}

// TestMigrateDB_Fresh verifies all migrations apply cleanly to an empty database.
func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 0 {
		t.Errorf("initial version = %d, want 0", v)
	}

	if err := InitDB(db); err != nil {
		t.Fatalf("InitDB failed on fresh db: %v", err)
	}
	if v, _ := SchemaVersion(db); v != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", v, LatestSchemaVersion())
	}

	tables := getTableNames(t, db)
	if len(tables) != len(expectedTables) {
		t.Fatalf("got %d tables, want %d\ngot:  %v\nwant: %v", len(tables), len(expectedTables), tables, expectedTables)
	}
	for i, want := range expectedTables {
		if tables[i] != want {
			t.Errorf("table[%d] = %q, want %q", i, tables[i], want)
		}
	}
}

// TestMigrateDB_Idempotent verifies a second run keeps data and version.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("first migrate failed: %v", err)
	}
	now := FormatTime(time.Now())
	if _, err := db.Exec(`INSERT INTO parking_lots (id, name, max_capacity, created_at, updated_at) VALUES ('l1', 'Gedung A', 40, ?, ?)`, now, now); err != nil {
		t.Fatalf("insert lot: %v", err)
	}
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	var name string
	if err := db.QueryRow("SELECT name FROM parking_lots WHERE id = 'l1'").Scan(&name); err != nil {
		t.Fatalf("lot lost after migration: %v", err)
	}
	if name != "Gedung A" {
		t.Errorf("name = %q, want Gedung A", name)
	}
	if v, _ := SchemaVersion(db); v != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", v, LatestSchemaVersion())
	}
}

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("WIB", 7*3600))
	got, err := ParseTime(FormatTime(in))
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !got.Equal(in) {
		t.Errorf("round trip = %v, want %v", got, in)
	}
	if FormatTime(in) >= FormatTime(in.Add(time.Nanosecond*400)) {
		t.Error("formatted times must sort lexically")
	}
	nt, err := ParseNullTime(sql.NullString{})
	if err != nil || nt.Valid {
		t.Errorf("ParseNullTime(null) = %v, %v; want invalid, nil", nt, err)
	}
}

// TestSoftDeleteTable covers the generic operations used by the cascade.
func TestSoftDeleteTable(t *testing.T) {
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	ctx := context.Background()
	now := FormatTime(time.Now())
	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}
	mustExec(`INSERT INTO students (id, qr_code_id, name, nim, email, created_at, updated_at) VALUES ('s1', 'q1', 'Siti', '1', 's@x.id', ?, ?)`, now, now)
	mustExec(`INSERT INTO vehicles (id, student_id, plate, created_at, updated_at) VALUES ('v1', 's1', 'B 1', ?, ?)`, now, now)
	mustExec(`INSERT INTO vehicles (id, student_id, plate, created_at, updated_at) VALUES ('v2', 's1', 'B 2', ?, ?)`, now, now)

	vehicles := NewSoftDeleteTable(db, "vehicles", "student_id")

	ids, err := vehicles.ActiveIDsWhere(ctx, "student_id", "s1")
	if err != nil || len(ids) != 2 {
		t.Fatalf("ActiveIDsWhere = %v, %v; want 2 ids", ids, err)
	}
	ok, err := vehicles.MarkDeleted(ctx, "v1", time.Now())
	if err != nil || !ok {
		t.Fatalf("MarkDeleted = %v, %v; want true, nil", ok, err)
	}
	ok, _ = vehicles.MarkDeleted(ctx, "v1", time.Now())
	if ok {
		t.Error("second MarkDeleted = true, want false")
	}
	if active, _ := vehicles.IsActive(ctx, "v1"); active {
		t.Error("IsActive(v1) = true after delete")
	}
	if found, _ := vehicles.AnyActiveWhere(ctx, "student_id", "s1"); !found {
		t.Error("AnyActiveWhere = false, want true (v2 active)")
	}
	if ref, err := vehicles.RefValue(ctx, "v1", "student_id"); err != nil || ref != "s1" {
		t.Errorf("RefValue = %q, %v; want s1", ref, err)
	}
	if _, err := vehicles.RefValue(ctx, "nope", "student_id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RefValue(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := vehicles.ActiveIDsWhere(ctx, "plate; DROP TABLE vehicles", "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown column error = %v, want ErrUnknownColumn", err)
	}
}
