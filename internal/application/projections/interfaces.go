package projections

import (
	"context"
	"errors"
	"time"

	"parky/internal/adapters/storage"
	attendantstore "parky/internal/adapters/storage/attendant"
	lotstore "parky/internal/adapters/storage/parkinglot"
	studentstore "parky/internal/adapters/storage/student"
	"parky/internal/domain/activity"
	"parky/internal/domain/assignment"
	"parky/internal/domain/attendant"
	"parky/internal/domain/parkinglot"
	"parky/internal/domain/schedule"
	"parky/internal/domain/student"
	"parky/internal/domain/vehicle"
)

// Query errors
var (
	// ErrInvalidQuery marks query parameters rejected before any read.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound marks a requested record that is missing or deleted.
	ErrNotFound = storage.ErrNotFound
)

// LotStore interface for lot queries.
type LotStore interface {
	GetByID(ctx context.Context, id string) (parkinglot.Lot, error)
	List(ctx context.Context, filter lotstore.ListFilter) ([]parkinglot.Lot, error)
	Count(ctx context.Context, filter lotstore.ListFilter) (int, error)
	ListAll(ctx context.Context) ([]parkinglot.Lot, error)
}

// ScheduleStore interface for schedule queries.
type ScheduleStore interface {
	FindActiveByDay(ctx context.Context, day string) (schedule.Schedule, error)
	ListAll(ctx context.Context) ([]schedule.Schedule, error)
}

// AssignmentStore interface for assignment queries.
type AssignmentStore interface {
	ListActiveByLot(ctx context.Context, lotID string) ([]assignment.Assignment, error)
	ListActiveBookings(ctx context.Context) ([]assignment.Booking, error)
	ListAll(ctx context.Context) ([]assignment.Assignment, error)
}

// AttendantStore interface for attendant queries.
type AttendantStore interface {
	List(ctx context.Context, filter attendantstore.ListFilter) ([]attendant.Attendant, error)
	Count(ctx context.Context, filter attendantstore.ListFilter) (int, error)
	ListAll(ctx context.Context) ([]attendant.Attendant, error)
}

// StudentStore interface for student queries.
type StudentStore interface {
	List(ctx context.Context, filter studentstore.ListFilter) ([]student.Student, error)
	Count(ctx context.Context, filter studentstore.ListFilter) (int, error)
	ListAll(ctx context.Context) ([]student.Student, error)
}

// VehicleStore interface for vehicle queries.
type VehicleStore interface {
	ListAll(ctx context.Context) ([]vehicle.Vehicle, error)
}

// ActivityStore interface for activity and history queries.
type ActivityStore interface {
	ListActivities(ctx context.Context) ([]activity.Activity, error)
	ListActivitiesBetween(ctx context.Context, start, end time.Time) ([]activity.Activity, error)
	ListHistories(ctx context.Context) ([]activity.History, error)
}
