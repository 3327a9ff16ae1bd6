package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/account"
)

const accountColumns = "id, email, password_hash, role, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByEmail retrieves an Account, matching the email case-insensitively.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE email = ? COLLATE NOCASE", email)
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s not found: %w", email, storage.ErrNotFound)
	}
	return entity, err
}

// Save inserts an Account or replaces its password hash.
// POST: email, role and created_at never change after the first insert
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account (`+accountColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET password_hash=excluded.password_hash`,
		entity.ID, entity.Email, entity.PasswordHash, entity.Role, storage.FormatTime(entity.CreatedAt),
	)
	return err
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var (
		entity    domain.Account
		createdAt string
	)
	if err := scan(&entity.ID, &entity.Email, &entity.PasswordHash, &entity.Role, &createdAt); err != nil {
		return domain.Account{}, err
	}
	var err error
	entity.CreatedAt, err = storage.ParseTime(createdAt)
	return entity, err
}
