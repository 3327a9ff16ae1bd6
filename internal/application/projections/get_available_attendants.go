package projections

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"parky/internal/domain/assignment"
	"parky/internal/domain/attendant"
	"parky/internal/domain/schedule"
)

// GetAvailableAttendantsQuery carries input for the availability projection.
type GetAvailableAttendantsQuery struct {
	Day          string // empty means every day of the week
	ExcludeLotID string // this lot's own assignments do not count as busy
}

// GetAvailableAttendantsDeps holds dependencies for the availability projection.
type GetAvailableAttendantsDeps struct {
	AttendantStore  AttendantStore
	AssignmentStore AssignmentStore
}

// AttendantOption is one selectable attendant.
type AttendantOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DayAvailability lists the attendants free on one day.
type DayAvailability struct {
	Day        string            `json:"day"`
	Label      string            `json:"label"`
	Attendants []AttendantOption `json:"attendants"`
}

// QueryGetAvailableAttendants computes the free attendants from one snapshot of bookings.
// PRE: Day is empty or a valid day key
// POST: days are in week order; an attendant busy at another lot on a day is never listed for it
func QueryGetAvailableAttendants(ctx context.Context, query GetAvailableAttendantsQuery, deps GetAvailableAttendantsDeps) ([]DayAvailability, error) {
	days := schedule.ValidDays
	if query.Day != "" {
		day := strings.ToLower(strings.TrimSpace(query.Day))
		if !schedule.IsValidDay(day) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, schedule.ErrInvalidDay)
		}
		days = []string{day}
	}

	var (
		attendants []attendant.Attendant
		bookings   []assignment.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attendants, err = deps.AttendantStore.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = deps.AssignmentStore.ListActiveBookings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load availability snapshot: %w", err)
	}

	out := make([]DayAvailability, 0, len(days))
	for _, day := range days {
		free := assignment.AvailableAttendants(day, attendants, bookings, query.ExcludeLotID)
		options := make([]AttendantOption, 0, len(free))
		for _, a := range free {
			options = append(options, AttendantOption{ID: a.ID, Name: a.Name, Email: a.Email})
		}
		out = append(out, DayAvailability{Day: day, Label: schedule.Label(day), Attendants: options})
	}
	return out, nil
}
