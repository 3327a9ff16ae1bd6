package activity

import (
	"errors"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// History status constants
const (
	StatusIn  = "in"
	StatusOut = "out"
)

// Domain errors
var (
	ErrEmptyStudentID = errors.New("activity student ID cannot be empty")
	ErrEmptyLotID     = errors.New("activity parking lot ID cannot be empty")
	ErrEmptyHistoryID = errors.New("activity parking history ID cannot be empty")
	ErrNegativeCount  = errors.New("vehicle in count cannot be negative")
	ErrEmptyStatus    = errors.New("history status cannot be empty")
	ErrExitBeforePark = errors.New("exited_at cannot be before parked_at")
)

// Activity is one observed parking event of a student at a lot.
// Activities are never soft-deleted.
type Activity struct {
	ID             string
	StudentID      string
	LotID          string
	HistoryID      string
	VehicleInCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// History carries the status and timestamps of an Activity.
// UpdatedAt is null until the history is first touched after creation.
type History struct {
	ID        string
	Status    string
	ParkedAt  null.Time
	ExitedAt  null.Time
	CreatedAt time.Time
	UpdatedAt null.Time
}

// Validate checks if the Activity has valid data.
// PRE: Activity struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Activity) Validate() error {
	if strings.TrimSpace(a.StudentID) == "" {
		return ErrEmptyStudentID
	}
	if strings.TrimSpace(a.LotID) == "" {
		return ErrEmptyLotID
	}
	if strings.TrimSpace(a.HistoryID) == "" {
		return ErrEmptyHistoryID
	}
	if a.VehicleInCount < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Validate checks if the History has valid data.
// Unknown statuses are accepted; only in and out are produced here.
func (h *History) Validate() error {
	if strings.TrimSpace(h.Status) == "" {
		return ErrEmptyStatus
	}
	if h.ParkedAt.Valid && h.ExitedAt.Valid && h.ExitedAt.Time.Before(h.ParkedAt.Time) {
		return ErrExitBeforePark
	}
	return nil
}

// Exit records the vehicle leaving.
// POST: Status is out, ExitedAt and UpdatedAt set to now
func (h *History) Exit(now time.Time) {
	h.Status = StatusOut
	h.ExitedAt = null.TimeFrom(now)
	h.UpdatedAt = null.TimeFrom(now)
}
