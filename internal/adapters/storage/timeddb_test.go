package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"parky/internal/adapters/http/perf"
)

// newTimed returns a TimedDB over a migrated in-memory database and its collector.
func newTimed(t *testing.T) (*TimedDB, *perf.Collector) {
	t.Helper()
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	collector := perf.NewCollector(1000)
	return NewTimedDB(db, collector, time.Second), collector
}

// TestTimedDB_Records checks each wrapper records one entry labelled by table.
func TestTimedDB_Records(t *testing.T) {
	tdb, collector := newTimed(t)
	ctx := context.Background()
	now := FormatTime(time.Now())

	if _, err := tdb.ExecContext(ctx,
		"INSERT INTO parking_lots (id, name, max_capacity, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		"l1", "Gedung A", 40, now, now); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM parking_lots")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()
	var name string
	if err := tdb.QueryRowContext(ctx, "SELECT name FROM parking_lots WHERE id = ?", "l1").Scan(&name); err != nil || name != "Gedung A" {
		t.Fatalf("QueryRowContext = %q, %v", name, err)
	}

	snap := collector.Snapshot(time.Time{}, 0)
	if snap.TotalRecorded != 3 || snap.FailedQueries != 0 {
		t.Fatalf("snapshot = %+v, want 3 entries and no failures", snap)
	}
	counts := map[string]int{}
	for _, q := range snap.SlowestQueries {
		counts[q.Path] = q.Count
	}
	if counts["insert parking_lots"] != 1 || counts["select parking_lots"] != 2 {
		t.Errorf("labels = %v", counts)
	}
}

// TestTimedDB_Failures checks failed and cancelled statements still return their error and are counted.
func TestTimedDB_Failures(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	tests := []struct {
		name  string
		ctx   context.Context
		query string
	}{
		{"unknown table", context.Background(), "INSERT INTO missing_table VALUES (?)"},
		{"cancelled context", cancelled, "UPDATE students SET name = ? WHERE id = 'x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tdb, collector := newTimed(t)
			if _, err := tdb.ExecContext(tt.ctx, tt.query, "v"); err == nil {
				t.Fatal("expected error, got nil")
			}
			if snap := collector.Snapshot(time.Time{}, 0); snap.FailedQueries != 1 {
				t.Errorf("FailedQueries = %d, want 1", snap.FailedQueries)
			}
		})
	}
}

func TestTimedDB_Defaults(t *testing.T) {
	tdb := NewTimedDB(openTestDB(t), nil, 0)
	if tdb.threshold != DefaultSlowQuery {
		t.Errorf("threshold = %v, want %v", tdb.threshold, DefaultSlowQuery)
	}
	rows, err := tdb.QueryContext(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("query without collector: %v", err)
	}
	// the pool holds one connection; an open Rows would block the ping
	rows.Close()
	if err := tdb.PingContext(context.Background()); err != nil {
		t.Errorf("PingContext: %v", err)
	}
}

func TestStatementLabel(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT id FROM parking_lots WHERE id = ?", "select parking_lots"},
		{"INSERT INTO vehicles (id) VALUES (?)", "insert vehicles"},
		{"INSERT INTO vehicles(id) VALUES (?)", "insert vehicles"},
		{"SELECT count(*) FROM students(x)", "select students"},
		{"SELECT * FROM parking_lots, parking_schedules", "select parking_lots"},
		{"UPDATE students SET deleted_at = ?", "update students"},
		{"  select count(*)\n FROM parking_assignments", "select parking_assignments"},
		{"DELETE FROM schema_version", "delete schema_version"},
		{"SELECT 1", "select"},
		{"PRAGMA foreign_keys = ON", "pragma"},
		{"", "empty"},
	}
	for _, tt := range tests {
		if got := statementLabel(tt.query); got != tt.want {
			t.Errorf("statementLabel(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

// TestTimedDB_Concurrent runs writers and readers on one TimedDB.
func TestTimedDB_Concurrent(t *testing.T) {
	tdb, collector := newTimed(t)
	ctx := context.Background()
	now := FormatTime(time.Now())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				tdb.ExecContext(ctx, `INSERT INTO parking_lots (id, name, max_capacity, created_at, updated_at)
					VALUES ('l', 'A', 1, ?, ?) ON CONFLICT(id) DO NOTHING`, now, now)
				if rows, err := tdb.QueryContext(ctx, "SELECT id FROM parking_lots LIMIT 1"); err == nil {
					rows.Close()
				}
			}
		}()
	}
	wg.Wait()
	if got := collector.TotalRecorded(); got != 200 {
		t.Errorf("TotalRecorded = %d, want 200", got)
	}
}
