package attendant

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
)

// Domain errors
var (
	ErrEmptyName      = errors.New("attendant name cannot be empty")
	ErrNameTooLong    = errors.New("attendant name cannot exceed 100 characters")
	ErrInvalidEmail   = errors.New("attendant email must be valid")
	ErrEmailImmutable = errors.New("attendant email cannot be changed")
	ErrAlreadyDeleted = errors.New("attendant is already deleted")
)

// Attendant staffs parking lots. The email is fixed at creation.
type Attendant struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt null.Time
}

// Validate checks if the Attendant has valid data.
// PRE: Attendant struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Attendant) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !ValidEmail(a.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// Rename changes the display name.
// PRE: name is non-empty
// POST: Name and UpdatedAt updated
func (a *Attendant) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	a.Name = name
	a.UpdatedAt = now
	return nil
}

// IsDeleted reports whether the attendant has been soft-deleted.
func (a *Attendant) IsDeleted() bool {
	return a.DeletedAt.Valid
}

// ValidEmail reports whether s is a single bare address with a dotted domain.
func ValidEmail(s string) bool {
	if s == "" || len(s) > MaxEmailLength || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
