package schedule

import (
	"context"

	domain "parky/internal/domain/schedule"
)

// Store persists day-of-week schedules.
// Schedules are keyed by day only and shared by every lot.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Schedule, error)
	Save(ctx context.Context, value domain.Schedule) error
	FindActiveByDay(ctx context.Context, day string) (domain.Schedule, error)
	ListAll(ctx context.Context) ([]domain.Schedule, error)
}
