package projections

import (
	"context"
	"errors"
	"fmt"

	"parky/internal/domain/schedule"
)

// GetLotWeekQuery carries input for the lot week projection.
type GetLotWeekQuery struct {
	LotID string
}

// GetLotWeekDeps holds dependencies for the lot week projection.
type GetLotWeekDeps struct {
	LotStore        LotStore
	ScheduleStore   ScheduleStore
	AssignmentStore AssignmentStore
}

// LotView is the editable part of a lot.
type LotView struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	MaxCapacity         int     `json:"max_capacity"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	IsActive            bool    `json:"is_active"`
	InactiveDescription string  `json:"inactive_description,omitempty"`
}

// WeekDay is one day of a lot's week as the edit form shows it.
type WeekDay struct {
	Day          string `json:"day"`
	Label        string `json:"label"`
	ScheduleID   string `json:"schedule_id,omitempty"`
	IsClosed     bool   `json:"is_closed"`
	OpenTime     string `json:"open_time,omitempty"`
	ClosedTime   string `json:"closed_time,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	AttendantID  string `json:"attendant_id,omitempty"`
}

// LotWeek is a lot with its seven days.
type LotWeek struct {
	Lot  LotView   `json:"lot"`
	Days []WeekDay `json:"days"`
}

// QueryGetLotWeek reads back a lot and, per day, the shared schedule and the lot's attendant.
// PRE: LotID names an active lot
// POST: Days has seven entries in week order; a day without an active schedule is reported closed
func QueryGetLotWeek(ctx context.Context, query GetLotWeekQuery, deps GetLotWeekDeps) (LotWeek, error) {
	lot, err := deps.LotStore.GetByID(ctx, query.LotID)
	if err != nil {
		return LotWeek{}, err
	}
	if lot.IsDeleted() {
		return LotWeek{}, fmt.Errorf("parking lot %s is deleted: %w", query.LotID, ErrNotFound)
	}
	assignments, err := deps.AssignmentStore.ListActiveByLot(ctx, lot.ID)
	if err != nil {
		return LotWeek{}, fmt.Errorf("load assignments: %w", err)
	}

	week := LotWeek{
		Lot: LotView{
			ID:                  lot.ID,
			Name:                lot.Name,
			MaxCapacity:         lot.MaxCapacity,
			Latitude:            lot.Latitude,
			Longitude:           lot.Longitude,
			IsActive:            lot.IsActive,
			InactiveDescription: lot.InactiveDescription.String,
		},
		Days: make([]WeekDay, 0, len(schedule.ValidDays)),
	}
	for _, day := range schedule.ValidDays {
		wd := WeekDay{Day: day, Label: schedule.Label(day), IsClosed: true}
		s, err := deps.ScheduleStore.FindActiveByDay(ctx, day)
		switch {
		case errors.Is(err, ErrNotFound):
			week.Days = append(week.Days, wd)
			continue
		case err != nil:
			return LotWeek{}, fmt.Errorf("load schedule %s: %w", day, err)
		}
		wd.ScheduleID = s.ID
		wd.IsClosed = s.IsClosed
		wd.OpenTime = s.OpenTime.String
		wd.ClosedTime = s.ClosedTime.String
		// Assignments arrive oldest first; the first one for the schedule is the lot's staff.
		for _, a := range assignments {
			if a.ScheduleID == s.ID {
				wd.AssignmentID = a.ID
				wd.AttendantID = a.AttendantID
				break
			}
		}
		week.Days = append(week.Days, wd)
	}
	return week, nil
}
