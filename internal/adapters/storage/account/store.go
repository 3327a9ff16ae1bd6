// Package account stores the credential rows behind the admin, attendants and students.
package account

import (
	"context"

	domain "parky/internal/domain/account"
)

// Store looks accounts up by login email. An account shares its ID with the
// attendant or student it belongs to and is never deleted.
type Store interface {
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
}
