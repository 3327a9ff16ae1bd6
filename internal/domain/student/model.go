package student

import (
	"errors"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"

	"parky/internal/domain/attendant"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
	MaxNIMLength  = 32
)

// Domain errors
var (
	ErrEmptyName      = errors.New("student name cannot be empty")
	ErrNameTooLong    = errors.New("student name cannot exceed 100 characters")
	ErrEmptyNIM       = errors.New("student NIM cannot be empty")
	ErrNIMTooLong     = errors.New("student NIM cannot exceed 32 characters")
	ErrInvalidEmail   = errors.New("student email must be valid")
	ErrAlreadyDeleted = errors.New("student is already deleted")
	ErrNotDeleted     = errors.New("student is not deleted")
)

// Student is a parking user. ID equals the ID of the student's account.
type Student struct {
	ID        string
	QRCodeID  string
	Name      string
	NIM       string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt null.Time
}

// Validate checks if the Student has valid data.
// PRE: Student struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(s.NIM) == "" {
		return ErrEmptyNIM
	}
	if len(s.NIM) > MaxNIMLength {
		return ErrNIMTooLong
	}
	if !attendant.ValidEmail(s.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// IsDeleted reports whether the student has been soft-deleted.
func (s *Student) IsDeleted() bool {
	return s.DeletedAt.Valid
}

// Reactivate clears the deletion marker and refreshes identity fields.
// PRE: student is deleted
// POST: DeletedAt null, Name and NIM replaced
func (s *Student) Reactivate(name, nim string, now time.Time) error {
	if !s.IsDeleted() {
		return ErrNotDeleted
	}
	s.DeletedAt = null.Time{}
	s.Name = strings.TrimSpace(name)
	s.NIM = strings.TrimSpace(nim)
	s.UpdatedAt = now
	return s.Validate()
}
