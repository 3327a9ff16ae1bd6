package storage

import (
	"database/sql"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"
)

// TimeLayout is fixed width so stored instants sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a value written by FormatTime. RFC 3339 input is accepted too.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// NullTimeValue converts a nullable instant to a query argument.
func NullTimeValue(t null.Time) any {
	if !t.Valid {
		return nil
	}
	return FormatTime(t.Time)
}

// ParseNullTime converts a scanned nullable column to null.Time.
func ParseNullTime(s sql.NullString) (null.Time, error) {
	if !s.Valid || s.String == "" {
		return null.Time{}, nil
	}
	t, err := ParseTime(s.String)
	if err != nil {
		return null.Time{}, err
	}
	return null.TimeFrom(t), nil
}

// BoolValue converts b to the INTEGER representation used in the schema.
func BoolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
