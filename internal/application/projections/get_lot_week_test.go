package projections

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"parky/internal/adapters/storage"
	assignmentstore "parky/internal/adapters/storage/assignment"
	attendantstore "parky/internal/adapters/storage/attendant"
	lotstore "parky/internal/adapters/storage/parkinglot"
	schedulestore "parky/internal/adapters/storage/schedule"
	"parky/internal/adapters/storage/storagetest"
	"parky/internal/application/listutil"
	"parky/internal/application/orchestrators"
	"parky/internal/domain/attendant"
	"parky/internal/domain/cascade"
	"parky/internal/domain/parkinglot"
	"parky/internal/domain/schedule"
)

type fixture struct {
	lots        *lotstore.SQLiteStore
	schedules   *schedulestore.SQLiteStore
	assignments *assignmentstore.SQLiteStore
	attendants  *attendantstore.SQLiteStore
	weekDeps    orchestrators.SaveLotWeekDeps
	deleteDeps  orchestrators.SoftDeleteDeps
}

func newFixture(t *testing.T, attendantIDs ...string) fixture {
	t.Helper()
	db := storagetest.OpenDB(t)
	f := fixture{
		lots:        lotstore.NewSQLiteStore(db),
		schedules:   schedulestore.NewSQLiteStore(db),
		assignments: assignmentstore.NewSQLiteStore(db),
		attendants:  attendantstore.NewSQLiteStore(db),
	}
	n := 0
	now := func() time.Time { return t0 }
	f.weekDeps = orchestrators.SaveLotWeekDeps{
		LotStore:        f.lots,
		ScheduleStore:   f.schedules,
		AssignmentStore: f.assignments,
		AttendantStore:  f.attendants,
		GenerateID:      func() string { n++; return fmt.Sprintf("id-%d", n) },
		Now:             now,
	}
	tables := orchestrators.SoftDeleteTables(storage.CascadeTables(db))
	f.deleteDeps = orchestrators.SoftDeleteDeps{Graph: cascade.DefaultGraph(), Tables: tables, Now: now}

	for _, id := range attendantIDs {
		a := attendant.Attendant{ID: id, Name: "Attendant " + id, Email: id + "@parky.test", CreatedAt: t0, UpdatedAt: t0}
		if err := f.attendants.Save(context.Background(), a); err != nil {
			t.Fatalf("seed attendant: %v", err)
		}
	}
	return f
}

func (f fixture) lotWeekDeps() GetLotWeekDeps {
	return GetLotWeekDeps{LotStore: f.lots, ScheduleStore: f.schedules, AssignmentStore: f.assignments}
}

// mixedWeek opens weekdays with p1 and closes the weekend with p2 on standby.
func mixedWeek() []orchestrators.DayChoice {
	var days []orchestrators.DayChoice
	for i, d := range schedule.ValidDays {
		c := orchestrators.DayChoice{Day: d, OpenTime: "06:30", ClosedTime: "18:00", AttendantID: "p1"}
		if i >= 5 {
			c = orchestrators.DayChoice{Day: d, IsClosed: true, AttendantID: "p2"}
		}
		days = append(days, c)
	}
	return days
}

// TestQueryGetLotWeek_RoundTrip verifies a saved week reads back as submitted.
func TestQueryGetLotWeek_RoundTrip(t *testing.T) {
	f := newFixture(t, "p1", "p2")
	ctx := context.Background()
	submitted := mixedWeek()
	res, err := orchestrators.ExecuteSaveLotWeek(ctx, orchestrators.SaveLotWeekInput{
		Lot:  orchestrators.LotFields{Name: "Gedung A", MaxCapacity: 20, IsActive: true},
		Days: submitted,
	}, f.weekDeps)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	week, err := QueryGetLotWeek(ctx, GetLotWeekQuery{LotID: res.Lot.ID}, f.lotWeekDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if week.Lot.Name != "Gedung A" || week.Lot.MaxCapacity != 20 {
		t.Errorf("lot = %+v", week.Lot)
	}
	if len(week.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(week.Days))
	}
	for i, want := range submitted {
		got := week.Days[i]
		if got.Day != want.Day || got.IsClosed != want.IsClosed || got.OpenTime != want.OpenTime ||
			got.ClosedTime != want.ClosedTime || got.AttendantID != want.AttendantID {
			t.Errorf("%s: got %+v, want %+v", want.Day, got, want)
		}
	}
}

// TestQueryGetLotWeek_Deleted verifies a deleted lot is not found.
func TestQueryGetLotWeek_Deleted(t *testing.T) {
	f := newFixture(t, "p1", "p2")
	ctx := context.Background()
	res, err := orchestrators.ExecuteSaveLotWeek(ctx, orchestrators.SaveLotWeekInput{
		Lot:  orchestrators.LotFields{Name: "Gedung A", MaxCapacity: 20, IsActive: true},
		Days: mixedWeek(),
	}, f.weekDeps)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := orchestrators.ExecuteSoftDelete(ctx, orchestrators.SoftDeleteInput{Kind: cascade.KindLot, ID: res.Lot.ID}, f.deleteDeps); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := QueryGetLotWeek(ctx, GetLotWeekQuery{LotID: res.Lot.ID}, f.lotWeekDeps()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := QueryGetLotWeek(ctx, GetLotWeekQuery{LotID: "nope"}, f.lotWeekDeps()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown lot, got %v", err)
	}
}

// TestQueryGetAvailableAttendants verifies busy attendants are hidden except on their own lot.
func TestQueryGetAvailableAttendants(t *testing.T) {
	f := newFixture(t, "p1", "p2", "p3")
	ctx := context.Background()
	res, err := orchestrators.ExecuteSaveLotWeek(ctx, orchestrators.SaveLotWeekInput{
		Lot:  orchestrators.LotFields{Name: "Gedung A", MaxCapacity: 20, IsActive: true},
		Days: mixedWeek(),
	}, f.weekDeps)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	deps := GetAvailableAttendantsDeps{AttendantStore: f.attendants, AssignmentStore: f.assignments}

	ids := func(d DayAvailability) []string {
		var out []string
		for _, a := range d.Attendants {
			out = append(out, a.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		query GetAvailableAttendantsQuery
		want  []string
	}{
		{"monday elsewhere", GetAvailableAttendantsQuery{Day: "monday"}, []string{"p2", "p3"}},
		{"monday own lot", GetAvailableAttendantsQuery{Day: "Monday", ExcludeLotID: res.Lot.ID}, []string{"p1", "p2", "p3"}},
		{"sunday elsewhere", GetAvailableAttendantsQuery{Day: "sunday"}, []string{"p1", "p3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryGetAvailableAttendants(ctx, tt.query, deps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected one day, got %d", len(got))
			}
			gotIDs := ids(got[0])
			if fmt.Sprint(gotIDs) != fmt.Sprint(tt.want) {
				t.Errorf("available = %v, want %v", gotIDs, tt.want)
			}
		})
	}

	all, err := QueryGetAvailableAttendants(ctx, GetAvailableAttendantsQuery{}, deps)
	if err != nil || len(all) != 7 {
		t.Fatalf("whole week = %d days, %v", len(all), err)
	}
	if _, err := QueryGetAvailableAttendants(ctx, GetAvailableAttendantsQuery{Day: "funday"}, deps); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

// TestQueryListLots verifies paging over active lots only.
func TestQueryListLots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, name := range []string{"Gedung C", "gedung a", "Gedung B"} {
		l := parkinglot.Lot{
			ID: fmt.Sprintf("lot-%d", i), Name: name, MaxCapacity: 10, IsActive: true,
			CreatedAt: t0, UpdatedAt: t0,
		}
		if err := f.lots.Save(ctx, l); err != nil {
			t.Fatalf("seed lot: %v", err)
		}
	}
	if _, err := orchestrators.ExecuteSoftDelete(ctx, orchestrators.SoftDeleteInput{Kind: cascade.KindLot, ID: "lot-0"}, f.deleteDeps); err != nil {
		t.Fatalf("delete: %v", err)
	}

	params := listutil.ListParams{PageParams: listutil.PageParams{Page: 1, PerPage: 10}, SortParams: listutil.SortParams{Dir: "asc"}}
	list, err := QueryListLots(ctx, params, f.lots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Page.Total != 2 || len(list.Items) != 2 {
		t.Fatalf("list = %+v, want 2 active lots", list)
	}
	if list.Items[0].Name != "gedung a" || list.Items[1].Name != "Gedung B" {
		t.Errorf("order = [%s %s], want [gedung a, Gedung B]", list.Items[0].Name, list.Items[1].Name)
	}

	params.Search = "b"
	list, err = QueryListLots(ctx, params, f.lots)
	if err != nil || len(list.Items) != 1 || list.Items[0].ID != "lot-2" {
		t.Errorf("search b = %+v, %v", list.Items, err)
	}
}
