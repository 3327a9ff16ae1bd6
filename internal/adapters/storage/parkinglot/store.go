package parkinglot

import (
	"context"

	domain "parky/internal/domain/parkinglot"
)

// Store persists parking lots.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Lot, error)
	Save(ctx context.Context, value domain.Lot) error
	List(ctx context.Context, filter ListFilter) ([]domain.Lot, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListAll(ctx context.Context) ([]domain.Lot, error)
}

// ListFilter carries filtering parameters for List operations.
// Only active lots are listed.
type ListFilter struct {
	Limit  int
	Offset int
	Search string
	Sort   string // name, max_capacity, created_at
	Dir    string // asc, desc
}
