package orchestrators

import (
	"context"
	"errors"
	"testing"

	"parky/internal/domain/assignment"
	"parky/internal/domain/parkinglot"
)

// TestExecuteSaveLotWeek_Create verifies a new lot gets seven schedules and seven assignments.
func TestExecuteSaveLotWeek_Create(t *testing.T) {
	w := newWorld(t)
	w.addAttendant(t, "p1", "Budi")
	ctx := context.Background()

	res, err := ExecuteSaveLotWeek(ctx, SaveLotWeekInput{Lot: openLot("Gedung A"), Days: fullWeek("p1")}, w.weekDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created {
		t.Error("expected Created=true")
	}
	if len(res.Days) != 7 {
		t.Fatalf("expected 7 saved days, got %d", len(res.Days))
	}
	if res.Days[0].Day != "monday" || res.Days[6].Day != "sunday" {
		t.Errorf("days not in week order: first=%s last=%s", res.Days[0].Day, res.Days[6].Day)
	}
	for _, d := range res.Days {
		if d.AssignmentID == "" || d.AttendantID != "p1" {
			t.Errorf("%s: expected assignment for p1, got %+v", d.Day, d)
		}
	}

	lot, err := w.lots.GetByID(ctx, res.Lot.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if lot.Name != "Gedung A" || lot.MaxCapacity != 40 {
		t.Errorf("persisted lot = %+v", lot)
	}
	if n := w.activeAssignments(t, lot.ID); n != 7 {
		t.Errorf("expected 7 active assignments, got %d", n)
	}
}

// TestExecuteSaveLotWeek_Idempotent verifies resubmitting the same week changes nothing.
func TestExecuteSaveLotWeek_Idempotent(t *testing.T) {
	w := newWorld(t)
	w.addAttendant(t, "p1", "Budi")
	ctx := context.Background()
	lotID := w.createLot(t, "Gedung A", "p1")

	before, _ := w.assignments.ListActiveByLot(ctx, lotID)
	schedulesBefore, _ := w.schedules.ListAll(ctx)

	res, err := ExecuteSaveLotWeek(ctx, SaveLotWeekInput{LotID: lotID, Lot: openLot("Gedung A"), Days: fullWeek("p1")}, w.weekDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created {
		t.Error("expected Created=false on update")
	}

	after, _ := w.assignments.ListActiveByLot(ctx, lotID)
	schedulesAfter, _ := w.schedules.ListAll(ctx)
	if len(after) != len(before) {
		t.Errorf("assignments: before=%d after=%d", len(before), len(after))
	}
	if len(schedulesAfter) != len(schedulesBefore) {
		t.Errorf("schedules: before=%d after=%d", len(schedulesBefore), len(schedulesAfter))
	}
	ids := make(map[string]bool)
	for _, a := range before {
		ids[a.ID] = true
	}
	for _, a := range after {
		if !ids[a.ID] {
			t.Errorf("assignment %s was recreated", a.ID)
		}
	}
}

// TestExecuteSaveLotWeek_SharesSchedulesAcrossLots verifies schedules are keyed by day only.
func TestExecuteSaveLotWeek_SharesSchedulesAcrossLots(t *testing.T) {
	w := newWorld(t)
	w.addAttendant(t, "p1", "Budi")
	w.addAttendant(t, "p2", "Sari")
	w.createLot(t, "Gedung A", "p1")
	w.createLot(t, "Gedung B", "p2")

	all, err := w.schedules.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 7 {
		t.Errorf("expected 7 shared schedules, got %d", len(all))
	}
}

// TestExecuteSaveLotWeek_Rejections verifies invalid submissions write nothing.
func TestExecuteSaveLotWeek_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		days    func() []DayChoice
		lot     LotFields
		wantErr error
	}{
		{
			name:    "missing day",
			days:    func() []DayChoice { return fullWeek("p1")[:6] },
			lot:     openLot("A"),
			wantErr: ErrMissingDay,
		},
		{
			name: "duplicate day",
			days: func() []DayChoice {
				d := fullWeek("p1")
				d[6].Day = "monday"
				return d
			},
			lot:     openLot("A"),
			wantErr: ErrDuplicateDay,
		},
		{
			name: "no attendant",
			days: func() []DayChoice {
				d := fullWeek("p1")
				d[2].AttendantID = ""
				return d
			},
			lot:     openLot("A"),
			wantErr: ErrNoAttendant,
		},
		{
			name: "closed day still needs an attendant on create",
			days: func() []DayChoice {
				d := fullWeek("p1")
				d[6] = DayChoice{Day: "sunday", IsClosed: true}
				return d
			},
			lot:     openLot("A"),
			wantErr: ErrNoAttendant,
		},
		{
			name: "bad day",
			days: func() []DayChoice {
				d := fullWeek("p1")
				d[0].Day = "someday"
				return d
			},
			lot:     openLot("A"),
			wantErr: ErrValidation,
		},
		{
			name:    "inactive lot without description",
			days:    func() []DayChoice { return fullWeek("p1") },
			lot:     LotFields{Name: "A", MaxCapacity: 1},
			wantErr: parkinglot.ErrMissingInactiveDescription,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			w.addAttendant(t, "p1", "Budi")
			ctx := context.Background()

			_, err := ExecuteSaveLotWeek(ctx, SaveLotWeekInput{Lot: tt.lot, Days: tt.days()}, w.weekDeps())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
			lots, _ := w.lots.ListAll(ctx)
			if len(lots) != 0 {
				t.Errorf("expected no lot written, got %d", len(lots))
			}
		})
	}
}

// TestExecuteSaveLotWeek_BusyAttendant verifies one attendant cannot staff two lots on a day.
func TestExecuteSaveLotWeek_BusyAttendant(t *testing.T) {
	w := newWorld(t)
	w.addAttendant(t, "p1", "Budi")
	w.addAttendant(t, "p2", "Sari")
	w.createLot(t, "Gedung A", "p1")

	days := fullWeek("p2")
	days[0].AttendantID = "p1"
	_, err := ExecuteSaveLotWeek(context.Background(), SaveLotWeekInput{Lot: openLot("Gedung B"), Days: days}, w.weekDeps())
	if !errors.Is(err, ErrAttendantBusy) {
		t.Fatalf("expected ErrAttendantBusy, got %v", err)
	}
}

// TestExecuteSaveLotWeek_UnknownAttendant verifies a missing attendant is reported as not found.
func TestExecuteSaveLotWeek_UnknownAttendant(t *testing.T) {
	w := newWorld(t)
	_, err := ExecuteSaveLotWeek(context.Background(), SaveLotWeekInput{Lot: openLot("A"), Days: fullWeek("ghost")}, w.weekDeps())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestExecuteSaveLotWeek_UpdateReassignsAndClears verifies an update may swap attendants and
// leave a closed day unstaffed.
func TestExecuteSaveLotWeek_UpdateReassignsAndClears(t *testing.T) {
	w := newWorld(t)
	w.addAttendant(t, "p1", "Budi")
	w.addAttendant(t, "p2", "Sari")
	ctx := context.Background()
	lotID := w.createLot(t, "Gedung A", "p1")

	days := fullWeek("p1")
	days[1].AttendantID = "p2"
	days[6] = DayChoice{Day: "sunday", IsClosed: true}
	res, err := ExecuteSaveLotWeek(ctx, SaveLotWeekInput{LotID: lotID, Lot: openLot("Gedung A"), Days: days}, w.weekDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Days[6].AssignmentID != "" {
		t.Errorf("sunday: expected no assignment, got %s", res.Days[6].AssignmentID)
	}

	active, _ := w.assignments.ListActiveByLot(ctx, lotID)
	if len(active) != 6 {
		t.Fatalf("expected 6 active assignments, got %d", len(active))
	}
	var tuesday assignment.Assignment
	for _, a := range active {
		if a.ScheduleID == res.Days[1].ScheduleID {
			tuesday = a
		}
	}
	if tuesday.AttendantID != "p2" {
		t.Errorf("tuesday attendant = %q, want p2", tuesday.AttendantID)
	}
	sunday, err := w.schedules.GetByID(ctx, res.Days[6].ScheduleID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !sunday.IsClosed || sunday.OpenTime.Valid {
		t.Errorf("sunday schedule = %+v, want closed without times", sunday)
	}
}

// TestExecuteSaveLotWeek_DeletedLot verifies a deleted lot cannot be edited.
func TestExecuteSaveLotWeek_DeletedLot(t *testing.T) {
	w := newWorld(t)
	w.addAttendant(t, "p1", "Budi")
	ctx := context.Background()
	lotID := w.createLot(t, "Gedung A", "p1")
	if _, err := ExecuteSoftDelete(ctx, SoftDeleteInput{Kind: "lot", ID: lotID}, w.softDeleteDeps()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	_, err := ExecuteSaveLotWeek(ctx, SaveLotWeekInput{LotID: lotID, Lot: openLot("Gedung A"), Days: fullWeek("p1")}, w.weekDeps())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// failingAssignments fails the nth Save call.
type failingAssignments struct {
	AssignmentStore
	failOn int
	calls  int
}

func (f *failingAssignments) Save(ctx context.Context, a assignment.Assignment) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("disk full")
	}
	return f.AssignmentStore.Save(ctx, a)
}

// TestExecuteSaveLotWeek_PartialWrite verifies a mid-week failure reports applied days.
func TestExecuteSaveLotWeek_PartialWrite(t *testing.T) {
	w := newWorld(t)
	w.addAttendant(t, "p1", "Budi")
	deps := w.weekDeps()
	deps.AssignmentStore = &failingAssignments{AssignmentStore: w.assignments, failOn: 3}

	_, err := ExecuteSaveLotWeek(context.Background(), SaveLotWeekInput{Lot: openLot("A"), Days: fullWeek("p1")}, deps)
	var pe *PartialWriteError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PartialWriteError, got %v", err)
	}
	want := []string{"lot", "monday", "tuesday"}
	if len(pe.Applied) != len(want) {
		t.Fatalf("Applied = %v, want %v", pe.Applied, want)
	}
	for i := range want {
		if pe.Applied[i] != want[i] {
			t.Errorf("Applied[%d] = %s, want %s", i, pe.Applied[i], want[i])
		}
	}
	if len(pe.Failed) != 1 || pe.Failed[0] != "wednesday" {
		t.Errorf("Failed = %v, want [wednesday]", pe.Failed)
	}
}
