package parkinglot

import (
	"errors"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// Domain errors
var (
	ErrEmptyName                  = errors.New("parking lot name cannot be empty")
	ErrNameTooLong                = errors.New("parking lot name cannot exceed 100 characters")
	ErrInvalidCapacity            = errors.New("max capacity must be a positive integer")
	ErrInvalidLatitude            = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude           = errors.New("longitude must be between -180 and 180")
	ErrMissingInactiveDescription = errors.New("inactive description is required when the lot is inactive")
	ErrDescriptionTooLong         = errors.New("inactive description cannot exceed 500 characters")
	ErrAlreadyDeleted             = errors.New("parking lot is already deleted")
)

// Lot is a physical parking location with a capacity and a weekly schedule.
type Lot struct {
	ID                  string
	Name                string
	MaxCapacity         int
	Latitude            float64
	Longitude           float64
	IsActive            bool
	InactiveDescription null.String // set iff IsActive is false
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           null.Time
}

// Normalize trims user input and clears the inactive description of an active lot.
// POST: Name is trimmed; InactiveDescription is null when IsActive
func (l *Lot) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	if l.IsActive {
		l.InactiveDescription = null.String{}
		return
	}
	desc := strings.TrimSpace(l.InactiveDescription.String)
	l.InactiveDescription = null.NewString(desc, desc != "")
}

// Validate checks if the Lot has valid data.
// PRE: Lot struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: an inactive lot carries a non-empty inactive description
func (l *Lot) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if len(l.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if l.MaxCapacity <= 0 {
		return ErrInvalidCapacity
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLongitude
	}
	if !l.IsActive && strings.TrimSpace(l.InactiveDescription.String) == "" {
		return ErrMissingInactiveDescription
	}
	if len(l.InactiveDescription.String) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsDeleted reports whether the lot has been soft-deleted.
func (l *Lot) IsDeleted() bool {
	return l.DeletedAt.Valid
}

// MarkDeleted soft-deletes the lot.
// PRE: lot is not deleted
// POST: DeletedAt and UpdatedAt set to now
func (l *Lot) MarkDeleted(now time.Time) error {
	if l.IsDeleted() {
		return ErrAlreadyDeleted
	}
	l.DeletedAt = null.TimeFrom(now)
	l.UpdatedAt = now
	return nil
}
