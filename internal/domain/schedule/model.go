package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Day of week constants
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// TimeLayout is the wall-clock format of open and closed times.
const TimeLayout = "15:04"

// ValidDays contains all valid day values in week order (Monday first).
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Labels maps day keys to the display names used by the admin UI.
var Labels = map[string]string{
	Monday:    "Senin",
	Tuesday:   "Selasa",
	Wednesday: "Rabu",
	Thursday:  "Kamis",
	Friday:    "Jumat",
	Saturday:  "Sabtu",
	Sunday:    "Minggu",
}

// Domain errors
var (
	ErrInvalidDay     = errors.New("day must be a valid day of the week")
	ErrIncompleteDay  = errors.New("open and closed times are required unless the day is closed")
	ErrInvalidTime    = errors.New("time must use HH:mm format")
	ErrAlreadyDeleted = errors.New("schedule is already deleted")
)

// Schedule is the open/closed window for one day of the week.
// Schedules are keyed by day only and shared by every lot.
type Schedule struct {
	ID         string
	Day        string      // monday, tuesday, etc.
	OpenTime   null.String // HH:mm
	ClosedTime null.String // HH:mm
	IsClosed   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  null.Time
}

// Validate checks if the Schedule has valid data.
// PRE: Schedule struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Schedule) Validate() error {
	if !IsValidDay(s.Day) {
		return ErrInvalidDay
	}
	if !s.IsClosed && (!hasTime(s.OpenTime) || !hasTime(s.ClosedTime)) {
		return fmt.Errorf("%s: %w", s.Day, ErrIncompleteDay)
	}
	for _, v := range []null.String{s.OpenTime, s.ClosedTime} {
		if !hasTime(v) {
			continue
		}
		if _, err := time.Parse(TimeLayout, v.String); err != nil {
			return fmt.Errorf("%s %q: %w", s.Day, v.String, ErrInvalidTime)
		}
	}
	return nil
}

// Normalize forces a day with a missing time to closed.
// POST: IsClosed is true when either time is missing
func (s *Schedule) Normalize() {
	s.OpenTime = trimTime(s.OpenTime)
	s.ClosedTime = trimTime(s.ClosedTime)
	if !hasTime(s.OpenTime) || !hasTime(s.ClosedTime) {
		s.IsClosed = true
	}
}

// IsOpen reports whether the schedule is active and not closed.
func (s *Schedule) IsOpen() bool {
	return !s.DeletedAt.Valid && !s.IsClosed
}

// IsDeleted reports whether the schedule has been soft-deleted.
func (s *Schedule) IsDeleted() bool {
	return s.DeletedAt.Valid
}

// MarkDeleted soft-deletes the schedule.
// PRE: schedule is not deleted
// POST: DeletedAt and UpdatedAt set to now
func (s *Schedule) MarkDeleted(now time.Time) error {
	if s.IsDeleted() {
		return ErrAlreadyDeleted
	}
	s.DeletedAt = null.TimeFrom(now)
	s.UpdatedAt = now
	return nil
}

// IsValidDay reports whether day is one of ValidDays.
func IsValidDay(day string) bool {
	return DayIndex(day) >= 0
}

// DayIndex returns the position of day in ValidDays, or -1.
func DayIndex(day string) int {
	for i, d := range ValidDays {
		if d == day {
			return i
		}
	}
	return -1
}

// DayOf returns the day key for t in its own location.
func DayOf(t time.Time) string {
	// time.Weekday starts on Sunday; ValidDays starts on Monday.
	return ValidDays[(int(t.Weekday())+6)%7]
}

// Label returns the display name of day, or day itself when unknown.
func Label(day string) string {
	if l, ok := Labels[strings.ToLower(day)]; ok {
		return l
	}
	return day
}

func hasTime(v null.String) bool {
	return v.Valid && strings.TrimSpace(v.String) != ""
}

func trimTime(v null.String) null.String {
	s := strings.TrimSpace(v.String)
	return null.NewString(s, v.Valid && s != "")
}
