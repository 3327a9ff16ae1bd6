package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"

	"parky/internal/domain/assignment"
	"parky/internal/domain/attendant"
	"parky/internal/domain/parkinglot"
	"parky/internal/domain/schedule"
)

// Week errors
var (
	ErrMissingDay    = errors.New("every day of the week must be submitted")
	ErrDuplicateDay  = errors.New("day submitted more than once")
	ErrNoAttendant   = errors.New("no attendant chosen")
	ErrAttendantBusy = errors.New("attendant is already assigned to another lot on that day")
)

// LotStore persists lots for the week reconciler.
type LotStore interface {
	GetByID(ctx context.Context, id string) (parkinglot.Lot, error)
	Save(ctx context.Context, l parkinglot.Lot) error
}

// ScheduleStore resolves and writes day-keyed schedules.
type ScheduleStore interface {
	FindActiveByDay(ctx context.Context, day string) (schedule.Schedule, error)
	Save(ctx context.Context, s schedule.Schedule) error
}

// AssignmentStore resolves and writes lot assignments.
type AssignmentStore interface {
	ListActiveByLotAndSchedule(ctx context.Context, lotID, scheduleID string) ([]assignment.Assignment, error)
	ListActiveBookings(ctx context.Context) ([]assignment.Booking, error)
	Save(ctx context.Context, a assignment.Assignment) error
}

// AttendantLookup reads attendants by ID.
type AttendantLookup interface {
	GetByID(ctx context.Context, id string) (attendant.Attendant, error)
}

// LotFields carries the editable fields of a lot.
type LotFields struct {
	Name                string
	MaxCapacity         int
	Latitude            float64
	Longitude           float64
	IsActive            bool
	InactiveDescription string
}

// DayChoice is the submitted schedule and attendant for one day.
type DayChoice struct {
	Day         string
	IsClosed    bool
	OpenTime    string // HH:mm
	ClosedTime  string // HH:mm
	AttendantID string
}

// SaveLotWeekInput carries input for the week reconciler.
// An empty LotID creates a new lot and requires all seven days.
type SaveLotWeekInput struct {
	LotID string
	Lot   LotFields
	Days  []DayChoice
}

// SavedDay reports what one day resolved to.
type SavedDay struct {
	Day          string
	ScheduleID   string
	AssignmentID string // empty when the day has no attendant
	AttendantID  string
}

// SaveLotWeekResult carries the persisted lot and per-day outcome.
type SaveLotWeekResult struct {
	Lot     parkinglot.Lot
	Created bool
	Days    []SavedDay
}

// SaveLotWeekDeps holds dependencies for SaveLotWeek.
type SaveLotWeekDeps struct {
	LotStore        LotStore
	ScheduleStore   ScheduleStore
	AssignmentStore AssignmentStore
	AttendantStore  AttendantLookup
	GenerateID      func() string
	Now             func() time.Time
}

// ExecuteSaveLotWeek writes a lot and reconciles its weekly schedule and staffing.
// PRE: on create every day is present with an attendant; on update the lot exists and is active
// POST: each submitted day has one active schedule for its day and at most one active
// assignment for (lot, schedule) naming the chosen attendant
// INVARIANT: validation runs before any write; a failed write stops the remaining days
// and returns *PartialWriteError listing the days already applied
func ExecuteSaveLotWeek(ctx context.Context, input SaveLotWeekInput, deps SaveLotWeekDeps) (SaveLotWeekResult, error) {
	now := deps.Now()
	creating := input.LotID == ""

	lot, err := resolveLot(ctx, input, deps, now)
	if err != nil {
		return SaveLotWeekResult{}, err
	}

	days, err := normalizeDays(input.Days, creating)
	if err != nil {
		return SaveLotWeekResult{}, err
	}
	if err := checkAttendants(ctx, lot.ID, creating, days, deps); err != nil {
		return SaveLotWeekResult{}, err
	}

	if err := deps.LotStore.Save(ctx, lot); err != nil {
		return SaveLotWeekResult{}, fmt.Errorf("save lot: %w", err)
	}

	result := SaveLotWeekResult{Lot: lot, Created: creating}
	applied := []string{"lot"}
	for _, d := range days {
		saved, err := reconcileDay(ctx, lot.ID, d, deps, now)
		if err != nil {
			slog.Error("lot_event", "event", "week_partial", "lot_id", lot.ID, "failed_day", d.schedule.Day, "error", err)
			return result, &PartialWriteError{
				Op:      "save week of lot " + lot.ID,
				Applied: applied,
				Failed:  []string{d.schedule.Day},
				Err:     err,
			}
		}
		result.Days = append(result.Days, saved)
		applied = append(applied, d.schedule.Day)
	}

	slog.Info("lot_event", "event", "week_saved", "lot_id", lot.ID, "created", creating, "days", len(days))
	return result, nil
}

// plannedDay is a validated submission for one day.
type plannedDay struct {
	schedule    schedule.Schedule
	attendantID string
}

func resolveLot(ctx context.Context, input SaveLotWeekInput, deps SaveLotWeekDeps, now time.Time) (parkinglot.Lot, error) {
	var lot parkinglot.Lot
	if input.LotID == "" {
		lot = parkinglot.Lot{ID: deps.GenerateID(), CreatedAt: now}
	} else {
		existing, err := deps.LotStore.GetByID(ctx, input.LotID)
		if err != nil {
			return parkinglot.Lot{}, err
		}
		if existing.IsDeleted() {
			return parkinglot.Lot{}, fmt.Errorf("parking lot %s is deleted: %w", input.LotID, ErrNotFound)
		}
		lot = existing
	}
	lot.Name = input.Lot.Name
	lot.MaxCapacity = input.Lot.MaxCapacity
	lot.Latitude = input.Lot.Latitude
	lot.Longitude = input.Lot.Longitude
	lot.IsActive = input.Lot.IsActive
	lot.InactiveDescription = null.StringFrom(input.Lot.InactiveDescription)
	lot.UpdatedAt = now
	lot.Normalize()
	if err := lot.Validate(); err != nil {
		return parkinglot.Lot{}, invalid(err)
	}
	return lot, nil
}

// normalizeDays validates the submitted days and returns them in week order.
func normalizeDays(choices []DayChoice, creating bool) ([]plannedDay, error) {
	seen := make(map[string]bool, len(choices))
	days := make([]plannedDay, 0, len(choices))
	for _, c := range choices {
		day := strings.ToLower(strings.TrimSpace(c.Day))
		if !schedule.IsValidDay(day) {
			return nil, invalid(fmt.Errorf("%q: %w", c.Day, schedule.ErrInvalidDay))
		}
		if seen[day] {
			return nil, invalid(fmt.Errorf("%s: %w", schedule.Label(day), ErrDuplicateDay))
		}
		seen[day] = true

		s := schedule.Schedule{
			Day:        day,
			IsClosed:   c.IsClosed,
			OpenTime:   null.StringFrom(c.OpenTime),
			ClosedTime: null.StringFrom(c.ClosedTime),
		}
		if err := s.Validate(); err != nil {
			return nil, invalid(err)
		}
		s.Normalize()

		attendantID := strings.TrimSpace(c.AttendantID)
		// An update may leave a closed day unstaffed; that removes the lot's assignment for it.
		if attendantID == "" && (creating || !s.IsClosed) {
			return nil, invalid(fmt.Errorf("%s: %w", schedule.Label(day), ErrNoAttendant))
		}
		days = append(days, plannedDay{schedule: s, attendantID: attendantID})
	}
	if creating && len(days) != len(schedule.ValidDays) {
		return nil, invalid(ErrMissingDay)
	}
	sort.Slice(days, func(i, j int) bool {
		return schedule.DayIndex(days[i].schedule.Day) < schedule.DayIndex(days[j].schedule.Day)
	})
	return days, nil
}

// checkAttendants verifies each chosen attendant is active and free that day.
// The busy set is a point-in-time snapshot; concurrent edits are not detected.
func checkAttendants(ctx context.Context, lotID string, creating bool, days []plannedDay, deps SaveLotWeekDeps) error {
	bookings, err := deps.AssignmentStore.ListActiveBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	exclude := lotID
	if creating {
		exclude = ""
	}
	checked := make(map[string]bool)
	for _, d := range days {
		if d.attendantID == "" {
			continue
		}
		if !checked[d.attendantID] {
			a, err := deps.AttendantStore.GetByID(ctx, d.attendantID)
			if err != nil {
				return err
			}
			if a.IsDeleted() {
				return fmt.Errorf("attendant %s is deleted: %w", d.attendantID, ErrNotFound)
			}
			checked[d.attendantID] = true
		}
		if assignment.BusyAttendants(d.schedule.Day, bookings, exclude)[d.attendantID] {
			return invalid(fmt.Errorf("%s: %w", schedule.Label(d.schedule.Day), ErrAttendantBusy))
		}
	}
	return nil
}

// reconcileDay upserts the day's schedule and the lot's assignment for it.
func reconcileDay(ctx context.Context, lotID string, d plannedDay, deps SaveLotWeekDeps, now time.Time) (SavedDay, error) {
	s, err := deps.ScheduleStore.FindActiveByDay(ctx, d.schedule.Day)
	switch {
	case errors.Is(err, ErrNotFound):
		s = schedule.Schedule{ID: deps.GenerateID(), Day: d.schedule.Day, CreatedAt: now}
	case err != nil:
		return SavedDay{}, fmt.Errorf("find schedule: %w", err)
	}
	s.IsClosed = d.schedule.IsClosed
	s.OpenTime = d.schedule.OpenTime
	s.ClosedTime = d.schedule.ClosedTime
	s.UpdatedAt = now
	if err := deps.ScheduleStore.Save(ctx, s); err != nil {
		return SavedDay{}, fmt.Errorf("save schedule: %w", err)
	}

	saved := SavedDay{Day: s.Day, ScheduleID: s.ID, AttendantID: d.attendantID}
	existing, err := deps.AssignmentStore.ListActiveByLotAndSchedule(ctx, lotID, s.ID)
	if err != nil {
		return SavedDay{}, fmt.Errorf("find assignment: %w", err)
	}

	keep := -1
	if d.attendantID != "" {
		if len(existing) > 0 {
			keep = 0
			a := existing[0]
			if a.AttendantID != d.attendantID {
				a.AttendantID = d.attendantID
				a.UpdatedAt = now
				if err := deps.AssignmentStore.Save(ctx, a); err != nil {
					return SavedDay{}, fmt.Errorf("update assignment: %w", err)
				}
			}
			saved.AssignmentID = a.ID
		} else {
			a := assignment.Assignment{
				ID:          deps.GenerateID(),
				LotID:       lotID,
				ScheduleID:  s.ID,
				AttendantID: d.attendantID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := a.Validate(); err != nil {
				return SavedDay{}, invalid(err)
			}
			if err := deps.AssignmentStore.Save(ctx, a); err != nil {
				return SavedDay{}, fmt.Errorf("create assignment: %w", err)
			}
			saved.AssignmentID = a.ID
		}
	}

	// Remove every assignment not kept: the unstaffed case and duplicates left by earlier races.
	for i, a := range existing {
		if i == keep {
			continue
		}
		if err := a.MarkDeleted(now); err != nil {
			continue
		}
		if err := deps.AssignmentStore.Save(ctx, a); err != nil {
			return SavedDay{}, fmt.Errorf("remove assignment: %w", err)
		}
	}
	return saved, nil
}
