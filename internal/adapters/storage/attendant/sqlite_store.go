package attendant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/attendant"
)

const attendantColumns = "id, name, email, created_at, updated_at, deleted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendant store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Attendant by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Attendant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+attendantColumns+" FROM parking_attendants WHERE id = ?", id)
	entity, err := scanAttendant(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attendant{}, fmt.Errorf("attendant %s not found: %w", id, storage.ErrNotFound)
	}
	return entity, err
}

// GetByEmail retrieves an Attendant by email, including soft-deleted rows.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Attendant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+attendantColumns+" FROM parking_attendants WHERE email = ? COLLATE NOCASE", email)
	entity, err := scanAttendant(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attendant{}, fmt.Errorf("attendant %s not found: %w", email, storage.ErrNotFound)
	}
	return entity, err
}

// Save persists an Attendant to the database.
// PRE: entity has been validated
// POST: Entity is persisted; the stored email is never changed by an update
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Attendant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_attendants (`+attendantColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, updated_at=excluded.updated_at, deleted_at=excluded.deleted_at`,
		entity.ID, entity.Name, entity.Email,
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt),
		storage.NullTimeValue(entity.DeletedAt),
	)
	return err
}

// List retrieves active attendants matching the filter, ordered by name.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Attendant, error) {
	where, args := listWhereClause(filter)
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query := "SELECT " + attendantColumns + " FROM parking_attendants" + where +
		" ORDER BY name COLLATE NOCASE " + dir + ", id LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)
	return s.queryAttendants(ctx, query, args...)
}

// Count returns the number of active attendants matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM parking_attendants"+where, args...).Scan(&n)
	return n, err
}

// ListAll returns every attendant including soft-deleted ones.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Attendant, error) {
	return s.queryAttendants(ctx, "SELECT "+attendantColumns+" FROM parking_attendants ORDER BY created_at, id")
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE deleted_at IS NULL"
	var args []any
	if filter.Search != "" {
		where += " AND (name LIKE ? COLLATE NOCASE OR email LIKE ? COLLATE NOCASE)"
		args = append(args, "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return where, args
}

func (s *SQLiteStore) queryAttendants(ctx context.Context, query string, args ...any) ([]domain.Attendant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Attendant
	for rows.Next() {
		entity, err := scanAttendant(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanAttendant(scan func(dest ...any) error) (domain.Attendant, error) {
	var (
		entity               domain.Attendant
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := scan(&entity.ID, &entity.Name, &entity.Email, &createdAt, &updatedAt, &deletedAt); err != nil {
		return domain.Attendant{}, err
	}
	var err error
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Attendant{}, err
	}
	if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Attendant{}, err
	}
	if entity.DeletedAt, err = storage.ParseNullTime(deletedAt); err != nil {
		return domain.Attendant{}, err
	}
	return entity, nil
}
