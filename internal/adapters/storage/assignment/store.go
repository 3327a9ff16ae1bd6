package assignment

import (
	"context"

	domain "parky/internal/domain/assignment"
)

// Store persists lot/schedule/attendant assignments.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Assignment, error)
	Save(ctx context.Context, value domain.Assignment) error
	ListActiveByLotAndSchedule(ctx context.Context, lotID, scheduleID string) ([]domain.Assignment, error)
	ListActiveByLot(ctx context.Context, lotID string) ([]domain.Assignment, error)
	ListActiveBookings(ctx context.Context) ([]domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Assignment, error)
}
