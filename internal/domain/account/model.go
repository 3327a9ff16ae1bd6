// Package account is the login credential behind the administrator, an attendant or a student.
package account

import (
	"crypto/rand"
	"errors"
	"net/mail"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles. An attendant or student account shares its ID with the person record.
const (
	RoleAdmin     = "admin"
	RoleAttendant = "attendant"
	RoleStudent   = "student"
)

// Limits.
const (
	MaxEmailLength          = 254
	MinPasswordLength       = 8
	GeneratedPasswordLength = 12
)

var roles = []string{RoleAdmin, RoleAttendant, RoleStudent}

// passwordAlphabet drops 0/O, 1/l/I so a mailed password can be retyped.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	ErrEmptyEmail       = errors.New("account email is required")
	ErrEmailTooLong     = errors.New("account email exceeds 254 characters")
	ErrInvalidEmail     = errors.New("account email is not a valid address")
	ErrInvalidRole      = errors.New("account role must be admin, attendant or student")
	ErrEmptyPassword    = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// Account holds a bcrypt hash, never the password itself.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Validate checks the email and role. The hash is not inspected.
func (a *Account) Validate() error {
	switch email := strings.TrimSpace(a.Email); {
	case email == "":
		return ErrEmptyEmail
	case len(email) > MaxEmailLength:
		return ErrEmailTooLong
	}
	if addr, err := mail.ParseAddress(a.Email); err != nil || addr.Address != a.Email {
		return ErrInvalidEmail
	}
	if !slices.Contains(roles, a.Role) {
		return ErrInvalidRole
	}
	return nil
}

// SetPassword replaces PasswordHash with a bcrypt hash of plaintext.
// POST: on error PasswordHash is unchanged
func (a *Account) SetPassword(plaintext string) error {
	switch {
	case plaintext == "":
		return ErrEmptyPassword
	case len(plaintext) < MinPasswordLength:
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword returns ErrWrongPassword unless plaintext matches the stored hash.
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) != nil {
		return ErrWrongPassword
	}
	return nil
}

// GeneratePassword draws GeneratedPasswordLength characters uniformly from passwordAlphabet.
func GeneratePassword() (string, error) {
	// Bytes at or above limit are rejected so every character is equally likely.
	limit := byte(256 - 256%len(passwordAlphabet))
	out := make([]byte, 0, GeneratedPasswordLength)
	buf := make([]byte, 2*GeneratedPasswordLength)
	for len(out) < GeneratedPasswordLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b < limit && len(out) < GeneratedPasswordLength {
				out = append(out, passwordAlphabet[int(b)%len(passwordAlphabet)])
			}
		}
	}
	return string(out), nil
}
