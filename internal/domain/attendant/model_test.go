package attendant_test

import (
	"testing"
	"time"

	"parky/internal/domain/attendant"
)

// TestAttendant_Validate tests validation of Attendant.
func TestAttendant_Validate(t *testing.T) {
	tests := []struct {
		name    string
		att     attendant.Attendant
		wantErr error
	}{
		{name: "valid", att: attendant.Attendant{Name: "Budi", Email: "budi@example.com"}},
		{name: "empty name", att: attendant.Attendant{Name: "", Email: "budi@example.com"}, wantErr: attendant.ErrEmptyName},
		{name: "missing domain dot", att: attendant.Attendant{Name: "Budi", Email: "budi@localhost"}, wantErr: attendant.ErrInvalidEmail},
		{name: "display name form", att: attendant.Attendant{Name: "Budi", Email: "Budi <budi@example.com>"}, wantErr: attendant.ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.att.Validate(); err != tt.wantErr {
				t.Errorf("Attendant.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAttendant_Rename verifies rename trims and stamps UpdatedAt.
func TestAttendant_Rename(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := attendant.Attendant{Name: "Budi", Email: "budi@example.com"}
	if err := a.Rename("  Budi Santoso ", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name != "Budi Santoso" {
		t.Errorf("Name = %q, want Budi Santoso", a.Name)
	}
	if !a.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", a.UpdatedAt, now)
	}
	if err := a.Rename(" ", now); err != attendant.ErrEmptyName {
		t.Errorf("Rename(blank) error = %v, want ErrEmptyName", err)
	}
}
