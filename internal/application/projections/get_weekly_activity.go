package projections

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/guregu/null.v4"

	"parky/internal/domain/activity"
	"parky/internal/domain/assignment"
	"parky/internal/domain/attendant"
	"parky/internal/domain/parkinglot"
	"parky/internal/domain/schedule"
	"parky/internal/domain/student"
	"parky/internal/domain/vehicle"
)

// MissingName is shown when a referenced attendant, student, plate or history cannot be resolved.
const MissingName = "-"

// Snapshot is every collection the activity views join, loaded in full.
type Snapshot struct {
	Lots        []parkinglot.Lot
	Schedules   []schedule.Schedule
	Assignments []assignment.Assignment
	Attendants  []attendant.Attendant
	Students    []student.Student
	Vehicles    []vehicle.Vehicle
	Activities  []activity.Activity
	Histories   []activity.History
}

// SnapshotDeps holds the stores a Snapshot is loaded from.
type SnapshotDeps struct {
	LotStore        LotStore
	ScheduleStore   ScheduleStore
	AssignmentStore AssignmentStore
	AttendantStore  AttendantStore
	StudentStore    StudentStore
	VehicleStore    VehicleStore
	ActivityStore   ActivityStore
}

// LoadSnapshot reads all eight collections concurrently.
// POST: on any failure the first error is returned and the snapshot is discarded
func LoadSnapshot(ctx context.Context, deps SnapshotDeps) (Snapshot, error) {
	var s Snapshot
	g, gctx := errgroup.WithContext(ctx)
	load := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			return nil
		})
	}
	load("lots", func(ctx context.Context) (err error) { s.Lots, err = deps.LotStore.ListAll(ctx); return })
	load("schedules", func(ctx context.Context) (err error) { s.Schedules, err = deps.ScheduleStore.ListAll(ctx); return })
	load("assignments", func(ctx context.Context) (err error) { s.Assignments, err = deps.AssignmentStore.ListAll(ctx); return })
	load("attendants", func(ctx context.Context) (err error) { s.Attendants, err = deps.AttendantStore.ListAll(ctx); return })
	load("students", func(ctx context.Context) (err error) { s.Students, err = deps.StudentStore.ListAll(ctx); return })
	load("vehicles", func(ctx context.Context) (err error) { s.Vehicles, err = deps.VehicleStore.ListAll(ctx); return })
	load("activities", func(ctx context.Context) (err error) { s.Activities, err = deps.ActivityStore.ListActivities(ctx); return })
	load("histories", func(ctx context.Context) (err error) { s.Histories, err = deps.ActivityStore.ListHistories(ctx); return })
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// GetWeeklyActivityQuery carries input for the weekly activity projection.
type GetWeeklyActivityQuery struct {
	Search              string // case-insensitive substring of the student name
	OnlyMatchingWeekday bool   // keep rows whose history was last touched on the row's weekday
}

// GetWeeklyActivityDeps holds dependencies for the weekly activity projection.
type GetWeeklyActivityDeps struct {
	SnapshotDeps
	Location *time.Location
	Now      func() time.Time
}

// ActivityRow is one activity as displayed under a lot.
type ActivityRow struct {
	ActivityID      string    `json:"activity_id"`
	StudentID       string    `json:"student_id"`
	StudentName     string    `json:"student_name"`
	NIM             string    `json:"nim"`
	Plate           string    `json:"plate"`
	VehicleConflict bool      `json:"vehicle_conflict,omitempty"`
	VehicleInCount  int       `json:"vehicle_in_count"`
	Status          string    `json:"status"`
	ParkedAt        null.Time `json:"parked_at"`
	ExitedAt        null.Time `json:"exited_at"`
	UpdatedAt       null.Time `json:"updated_at"`
}

// LotActivity is one lot open on a day with its staff and rows.
type LotActivity struct {
	LotID         string        `json:"lot_id"`
	LotName       string        `json:"lot_name"`
	AttendantName string        `json:"attendant_name"`
	Rows          []ActivityRow `json:"rows"`
}

// DayActivity groups the lots open on one day of the week.
type DayActivity struct {
	Day   string        `json:"day"`
	Label string        `json:"label"`
	Lots  []LotActivity `json:"lots"`
}

// WeeklyActivity is the result of the weekly activity projection.
type WeeklyActivity struct {
	Today string        `json:"today"`
	Days  []DayActivity `json:"days"`
}

// QueryGetWeeklyActivity loads a snapshot and groups activity by day and lot.
func QueryGetWeeklyActivity(ctx context.Context, query GetWeeklyActivityQuery, deps GetWeeklyActivityDeps) (WeeklyActivity, error) {
	snap, err := LoadSnapshot(ctx, deps.SnapshotDeps)
	if err != nil {
		return WeeklyActivity{}, err
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return BuildWeeklyActivity(snap, query, loc, deps.Now()), nil
}

// BuildWeeklyActivity joins a snapshot into day -> lot -> rows.
// POST: seven days in week order; lots per day sorted by name ignoring case;
// rows sorted by history updated_at descending with unset timestamps last
// INVARIANT: soft-deleted records are treated as absent; the snapshot is not mutated
func BuildWeeklyActivity(snap Snapshot, query GetWeeklyActivityQuery, loc *time.Location, now time.Time) WeeklyActivity {
	idx := newSnapshotIndex(snap)
	search := strings.ToLower(strings.TrimSpace(query.Search))
	col := collate.New(language.Indonesian, collate.IgnoreCase)

	result := WeeklyActivity{
		Today: schedule.DayOf(now.In(loc)),
		Days:  make([]DayActivity, 0, len(schedule.ValidDays)),
	}
	for _, day := range schedule.ValidDays {
		da := DayActivity{Day: day, Label: schedule.Label(day), Lots: []LotActivity{}}
		for _, a := range idx.firstAssignmentPerLot(day) {
			lot := idx.lots[a.LotID]
			la := LotActivity{
				LotID:         lot.ID,
				LotName:       lot.Name,
				AttendantName: MissingName,
				Rows:          []ActivityRow{},
			}
			if att, ok := idx.attendants[a.AttendantID]; ok {
				la.AttendantName = att.Name
			}
			for _, act := range idx.activitiesByLot[lot.ID] {
				row, ok := idx.row(act)
				if !ok {
					continue
				}
				if search != "" && !strings.Contains(strings.ToLower(row.StudentName), search) {
					continue
				}
				if query.OnlyMatchingWeekday && (!row.UpdatedAt.Valid || schedule.DayOf(row.UpdatedAt.Time.In(loc)) != day) {
					continue
				}
				la.Rows = append(la.Rows, row)
			}
			sortRows(la.Rows)
			da.Lots = append(da.Lots, la)
		}
		sort.SliceStable(da.Lots, func(i, j int) bool {
			if c := col.CompareString(da.Lots[i].LotName, da.Lots[j].LotName); c != 0 {
				return c < 0
			}
			return da.Lots[i].LotID < da.Lots[j].LotID
		})
		result.Days = append(result.Days, da)
	}
	return result
}

// sortRows orders by history updated_at descending; rows without one go last.
func sortRows(rows []ActivityRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].UpdatedAt, rows[j].UpdatedAt
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid && !a.Time.Equal(b.Time) {
			return a.Time.After(b.Time)
		}
		return rows[i].ActivityID < rows[j].ActivityID
	})
}

// snapshotIndex holds id-keyed lookups over the active part of a snapshot.
type snapshotIndex struct {
	lots            map[string]parkinglot.Lot
	attendants      map[string]attendant.Attendant
	students        map[string]student.Student
	vehicles        map[string][]vehicle.Vehicle // active, per student
	histories       map[string]activity.History
	openSchedules   map[string]map[string]bool // day -> schedule id
	assignments     []assignment.Assignment    // active, oldest first
	activitiesByLot map[string][]activity.Activity
}

func newSnapshotIndex(snap Snapshot) snapshotIndex {
	idx := snapshotIndex{
		lots:            make(map[string]parkinglot.Lot),
		attendants:      make(map[string]attendant.Attendant),
		students:        make(map[string]student.Student),
		vehicles:        make(map[string][]vehicle.Vehicle),
		histories:       make(map[string]activity.History, len(snap.Histories)),
		openSchedules:   make(map[string]map[string]bool),
		activitiesByLot: make(map[string][]activity.Activity),
	}
	for _, l := range snap.Lots {
		if !l.IsDeleted() {
			idx.lots[l.ID] = l
		}
	}
	for _, a := range snap.Attendants {
		if !a.IsDeleted() {
			idx.attendants[a.ID] = a
		}
	}
	for _, s := range snap.Students {
		if !s.IsDeleted() {
			idx.students[s.ID] = s
		}
	}
	for _, v := range snap.Vehicles {
		if !v.IsDeleted() {
			idx.vehicles[v.StudentID] = append(idx.vehicles[v.StudentID], v)
		}
	}
	for _, h := range snap.Histories {
		idx.histories[h.ID] = h
	}
	for _, s := range snap.Schedules {
		if !s.IsOpen() {
			continue
		}
		if idx.openSchedules[s.Day] == nil {
			idx.openSchedules[s.Day] = make(map[string]bool)
		}
		idx.openSchedules[s.Day][s.ID] = true
	}
	for _, a := range snap.Assignments {
		if !a.IsDeleted() {
			idx.assignments = append(idx.assignments, a)
		}
	}
	sort.SliceStable(idx.assignments, func(i, j int) bool {
		a, b := idx.assignments[i], idx.assignments[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	for _, act := range snap.Activities {
		idx.activitiesByLot[act.LotID] = append(idx.activitiesByLot[act.LotID], act)
	}
	return idx
}

// firstAssignmentPerLot returns, for every active lot open on day, its oldest active assignment.
func (idx snapshotIndex) firstAssignmentPerLot(day string) []assignment.Assignment {
	open := idx.openSchedules[day]
	seen := make(map[string]bool)
	var out []assignment.Assignment
	for _, a := range idx.assignments {
		if !open[a.ScheduleID] || seen[a.LotID] {
			continue
		}
		if _, ok := idx.lots[a.LotID]; !ok {
			continue
		}
		seen[a.LotID] = true
		out = append(out, a)
	}
	return out
}

// row resolves one activity. Activities of absent or deleted students are dropped.
func (idx snapshotIndex) row(act activity.Activity) (ActivityRow, bool) {
	s, ok := idx.students[act.StudentID]
	if !ok {
		return ActivityRow{}, false
	}
	row := ActivityRow{
		ActivityID:     act.ID,
		StudentID:      s.ID,
		StudentName:    s.Name,
		NIM:            s.NIM,
		Plate:          MissingName,
		Status:         MissingName,
		VehicleInCount: act.VehicleInCount,
	}
	if v, conflict, ok := vehicle.Primary(idx.vehicles[s.ID]); ok {
		row.Plate = v.PlateNumber
		row.VehicleConflict = conflict
	}
	if h, ok := idx.histories[act.HistoryID]; ok {
		row.Status = h.Status
		row.ParkedAt = h.ParkedAt
		row.ExitedAt = h.ExitedAt
		row.UpdatedAt = h.UpdatedAt
	}
	return row, true
}
