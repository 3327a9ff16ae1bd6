package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"parky/internal/adapters/storage"
	accountstore "parky/internal/adapters/storage/account"
	assignmentstore "parky/internal/adapters/storage/assignment"
	attendantstore "parky/internal/adapters/storage/attendant"
	lotstore "parky/internal/adapters/storage/parkinglot"
	schedulestore "parky/internal/adapters/storage/schedule"
	"parky/internal/adapters/storage/storagetest"
	studentstore "parky/internal/adapters/storage/student"
	vehiclestore "parky/internal/adapters/storage/vehicle"
	"parky/internal/domain/attendant"
	"parky/internal/domain/cascade"
	"parky/internal/domain/schedule"
)

var clockTime = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func clockNow() time.Time { return clockTime }

// sequentialIDs returns a generator producing prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// world is a migrated in-memory database with every store bound to it.
type world struct {
	db          *sql.DB
	accounts    *accountstore.SQLiteStore
	lots        *lotstore.SQLiteStore
	schedules   *schedulestore.SQLiteStore
	assignments *assignmentstore.SQLiteStore
	attendants  *attendantstore.SQLiteStore
	students    *studentstore.SQLiteStore
	vehicles    *vehiclestore.SQLiteStore
	ids         func() string
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := storagetest.OpenDB(t)
	return &world{
		db:          db,
		accounts:    accountstore.NewSQLiteStore(db),
		lots:        lotstore.NewSQLiteStore(db),
		schedules:   schedulestore.NewSQLiteStore(db),
		assignments: assignmentstore.NewSQLiteStore(db),
		attendants:  attendantstore.NewSQLiteStore(db),
		students:    studentstore.NewSQLiteStore(db),
		vehicles:    vehiclestore.NewSQLiteStore(db),
		ids:         sequentialIDs("id"),
	}
}

func (w *world) weekDeps() SaveLotWeekDeps {
	return SaveLotWeekDeps{
		LotStore:        w.lots,
		ScheduleStore:   w.schedules,
		AssignmentStore: w.assignments,
		AttendantStore:  w.attendants,
		GenerateID:      w.ids,
		Now:             clockNow,
	}
}

func (w *world) softDeleteDeps() SoftDeleteDeps {
	tables := SoftDeleteTables(storage.CascadeTables(w.db))
	return SoftDeleteDeps{Graph: cascade.DefaultGraph(), Tables: tables, Now: clockNow}
}

func (w *world) addAttendant(t *testing.T, id, name string) {
	t.Helper()
	a := attendant.Attendant{ID: id, Name: name, Email: id + "@parky.test", CreatedAt: clockTime, UpdatedAt: clockTime}
	if err := w.attendants.Save(context.Background(), a); err != nil {
		t.Fatalf("seed attendant %s: %v", id, err)
	}
}

// createLot saves a new lot staffed by attendantID every day and returns its ID.
func (w *world) createLot(t *testing.T, name, attendantID string) string {
	t.Helper()
	res, err := ExecuteSaveLotWeek(context.Background(), SaveLotWeekInput{
		Lot:  openLot(name),
		Days: fullWeek(attendantID),
	}, w.weekDeps())
	if err != nil {
		t.Fatalf("create lot %s: %v", name, err)
	}
	return res.Lot.ID
}

func (w *world) activeAssignments(t *testing.T, lotID string) int {
	t.Helper()
	found, err := w.assignments.ListActiveByLot(context.Background(), lotID)
	if err != nil {
		t.Fatalf("ListActiveByLot: %v", err)
	}
	return len(found)
}

func openLot(name string) LotFields {
	return LotFields{Name: name, MaxCapacity: 40, Latitude: -6.2, Longitude: 106.8, IsActive: true}
}

func fullWeek(attendantID string) []DayChoice {
	days := make([]DayChoice, 0, len(schedule.ValidDays))
	for _, d := range schedule.ValidDays {
		days = append(days, DayChoice{Day: d, OpenTime: "07:00", ClosedTime: "17:00", AttendantID: attendantID})
	}
	return days
}
