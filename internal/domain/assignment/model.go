package assignment

import (
	"errors"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Domain errors
var (
	ErrEmptyLotID       = errors.New("parking lot ID cannot be empty")
	ErrEmptyScheduleID  = errors.New("parking schedule ID cannot be empty")
	ErrEmptyAttendantID = errors.New("parking attendant ID cannot be empty")
	ErrAlreadyDeleted   = errors.New("assignment is already deleted")
)

// Assignment binds one attendant to one lot for the day its schedule denotes.
type Assignment struct {
	ID          string
	LotID       string
	ScheduleID  string
	AttendantID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   null.Time
}

// Booking is an active assignment joined with the day of its schedule.
type Booking struct {
	Assignment
	Day string
}

// Validate checks if the Assignment has valid data.
// PRE: Assignment struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Assignment) Validate() error {
	if strings.TrimSpace(a.LotID) == "" {
		return ErrEmptyLotID
	}
	if strings.TrimSpace(a.ScheduleID) == "" {
		return ErrEmptyScheduleID
	}
	if strings.TrimSpace(a.AttendantID) == "" {
		return ErrEmptyAttendantID
	}
	return nil
}

// IsDeleted reports whether the assignment has been soft-deleted.
func (a *Assignment) IsDeleted() bool {
	return a.DeletedAt.Valid
}

// MarkDeleted soft-deletes the assignment.
// PRE: assignment is not deleted
// POST: DeletedAt and UpdatedAt set to now
func (a *Assignment) MarkDeleted(now time.Time) error {
	if a.IsDeleted() {
		return ErrAlreadyDeleted
	}
	a.DeletedAt = null.TimeFrom(now)
	a.UpdatedAt = now
	return nil
}
