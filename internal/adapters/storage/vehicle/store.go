package vehicle

import (
	"context"

	domain "parky/internal/domain/vehicle"
)

// Store persists student vehicles.
type Store interface {
	Save(ctx context.Context, value domain.Vehicle) error
	ListByStudent(ctx context.Context, studentID string) ([]domain.Vehicle, error)
	ListAll(ctx context.Context) ([]domain.Vehicle, error)
}
