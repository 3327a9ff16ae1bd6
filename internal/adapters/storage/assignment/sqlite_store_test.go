package assignment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"parky/internal/adapters/storage"
	"parky/internal/adapters/storage/storagetest"
	domain "parky/internal/domain/assignment"
)

func seedParents(t *testing.T, db *sql.DB) {
	t.Helper()
	now := storage.FormatTime(time.Now())
	stmts := []string{
		`INSERT INTO parking_lots (id, name, max_capacity, created_at, updated_at) VALUES ('l1', 'A', 1, ?, ?)`,
		`INSERT INTO parking_attendants (id, name, email, created_at, updated_at) VALUES ('p1', 'Budi', 'b@x.id', ?, ?)`,
		`INSERT INTO parking_schedules (id, day_of_week, is_closed, created_at, updated_at) VALUES ('mon', 'monday', 0, ?, ?)`,
		`INSERT INTO parking_schedules (id, day_of_week, is_closed, created_at, updated_at, deleted_at) VALUES ('tue', 'tuesday', 0, ?, ?, '2024-01-01T00:00:00.000000000Z')`,
	}
	for _, q := range stmts {
		if _, err := db.Exec(q, now, now); err != nil {
			t.Fatalf("seed %q: %v", q, err)
		}
	}
}

// TestSQLiteStore_ListActiveBookings verifies the schedule join and activeness filters.
func TestSQLiteStore_ListActiveBookings(t *testing.T) {
	db := storagetest.OpenDB(t)
	seedParents(t, db)
	store := NewSQLiteStore(db)
	ctx := context.Background()
	now := time.Now()

	for _, a := range []domain.Assignment{
		{ID: "a1", LotID: "l1", ScheduleID: "mon", AttendantID: "p1", CreatedAt: now, UpdatedAt: now},
		{ID: "a2", LotID: "l1", ScheduleID: "tue", AttendantID: "p1", CreatedAt: now, UpdatedAt: now},
	} {
		if err := store.Save(ctx, a); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	bookings, err := store.ListActiveBookings(ctx)
	if err != nil {
		t.Fatalf("ListActiveBookings: %v", err)
	}
	if len(bookings) != 1 || bookings[0].ID != "a1" || bookings[0].Day != "monday" {
		t.Errorf("ListActiveBookings = %+v, want only a1 on monday", bookings)
	}

	found, err := store.ListActiveByLotAndSchedule(ctx, "l1", "mon")
	if err != nil || len(found) != 1 {
		t.Fatalf("ListActiveByLotAndSchedule = %v, %v", found, err)
	}
	a := found[0]
	if err := a.MarkDeleted(now); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("Save deleted: %v", err)
	}
	if found, _ := store.ListActiveByLot(ctx, "l1"); len(found) != 1 || found[0].ID != "a2" {
		t.Errorf("ListActiveByLot after delete = %+v, want [a2]", found)
	}
}
