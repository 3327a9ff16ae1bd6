package student

import (
	"context"

	domain "parky/internal/domain/student"
)

// Store persists students.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Student, error)
	GetByEmail(ctx context.Context, email string) (domain.Student, error)
	Save(ctx context.Context, value domain.Student) error
	List(ctx context.Context, filter ListFilter) ([]domain.Student, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListAll(ctx context.Context) ([]domain.Student, error)
}

// ListFilter carries filtering parameters for List operations.
// Only active students are listed.
type ListFilter struct {
	Limit  int
	Offset int
	Search string // name or NIM
	Dir    string // asc, desc by name
}
