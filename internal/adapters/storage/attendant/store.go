package attendant

import (
	"context"

	domain "parky/internal/domain/attendant"
)

// Store persists parking attendants.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Attendant, error)
	GetByEmail(ctx context.Context, email string) (domain.Attendant, error)
	Save(ctx context.Context, value domain.Attendant) error
	List(ctx context.Context, filter ListFilter) ([]domain.Attendant, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListAll(ctx context.Context) ([]domain.Attendant, error)
}

// ListFilter carries filtering parameters for List operations.
// Only active attendants are listed.
type ListFilter struct {
	Limit  int
	Offset int
	Search string
	Dir    string // asc, desc by name
}
