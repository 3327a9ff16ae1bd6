package vehicle

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// MaxPlateLength is the longest accepted plate number.
const MaxPlateLength = 16

// Domain errors
var (
	ErrEmptyStudentID         = errors.New("vehicle student ID cannot be empty")
	ErrEmptyPlate             = errors.New("plate number cannot be empty")
	ErrPlateTooLong           = errors.New("plate number cannot exceed 16 characters")
	ErrAlreadyDeleted         = errors.New("vehicle is already deleted")
	ErrMultipleActiveVehicles = errors.New("student has more than one active vehicle")
)

// Vehicle is a student's registered vehicle.
type Vehicle struct {
	ID          string
	StudentID   string
	PlateNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   null.Time
}

// NormalizePlate upper-cases the plate and collapses inner whitespace.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), " "))
}

// Validate checks if the Vehicle has valid data.
// PRE: Vehicle struct is populated
// POST: Returns nil if valid, error otherwise
func (v *Vehicle) Validate() error {
	if strings.TrimSpace(v.StudentID) == "" {
		return ErrEmptyStudentID
	}
	if strings.TrimSpace(v.PlateNumber) == "" {
		return ErrEmptyPlate
	}
	if len(v.PlateNumber) > MaxPlateLength {
		return ErrPlateTooLong
	}
	return nil
}

// IsDeleted reports whether the vehicle has been soft-deleted.
func (v *Vehicle) IsDeleted() bool {
	return v.DeletedAt.Valid
}

// MarkDeleted soft-deletes the vehicle.
// PRE: vehicle is not deleted
// POST: DeletedAt and UpdatedAt set to now
func (v *Vehicle) MarkDeleted(now time.Time) error {
	if v.IsDeleted() {
		return ErrAlreadyDeleted
	}
	v.DeletedAt = null.TimeFrom(now)
	v.UpdatedAt = now
	return nil
}

// Primary picks the vehicle that represents a student.
// Active vehicles win over deleted ones; ties break on creation order then ID.
// conflict is true when more than one vehicle is active.
// POST: ok is false only when vehicles is empty
func Primary(vehicles []Vehicle) (v Vehicle, conflict bool, ok bool) {
	if len(vehicles) == 0 {
		return Vehicle{}, false, false
	}
	sorted := make([]Vehicle, len(vehicles))
	copy(sorted, vehicles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsDeleted() != sorted[j].IsDeleted() {
			return !sorted[i].IsDeleted()
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	active := 0
	for i := range sorted {
		if !sorted[i].IsDeleted() {
			active++
		}
	}
	return sorted[0], active > 1, true
}
