package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/student"
)

const studentColumns = "id, qr_code_id, name, nim, email, created_at, updated_at, deleted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new student store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Student by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Student, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+studentColumns+" FROM students WHERE id = ?", id)
	entity, err := scanStudent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Student{}, fmt.Errorf("student %s not found: %w", id, storage.ErrNotFound)
	}
	return entity, err
}

// GetByEmail retrieves a Student by email, including soft-deleted rows.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Student, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+studentColumns+" FROM students WHERE email = ? COLLATE NOCASE", email)
	entity, err := scanStudent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Student{}, fmt.Errorf("student %s not found: %w", email, storage.ErrNotFound)
	}
	return entity, err
}

// Save persists a Student to the database.
// PRE: entity has been validated
// POST: Entity is persisted; email and qr_code_id are never changed by an update
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Student) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, nim=excluded.nim,
			updated_at=excluded.updated_at, deleted_at=excluded.deleted_at`,
		entity.ID, entity.QRCodeID, entity.Name, entity.NIM, entity.Email,
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt),
		storage.NullTimeValue(entity.DeletedAt),
	)
	return err
}

// List retrieves active students matching the filter, ordered by name.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Student, error) {
	where, args := listWhereClause(filter)
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query := "SELECT " + studentColumns + " FROM students" + where +
		" ORDER BY name COLLATE NOCASE " + dir + ", id LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)
	return s.queryStudents(ctx, query, args...)
}

// Count returns the number of active students matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students"+where, args...).Scan(&n)
	return n, err
}

// ListAll returns every student including soft-deleted ones.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Student, error) {
	return s.queryStudents(ctx, "SELECT "+studentColumns+" FROM students ORDER BY created_at, id")
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE deleted_at IS NULL"
	var args []any
	if filter.Search != "" {
		where += " AND (name LIKE ? COLLATE NOCASE OR nim LIKE ?)"
		args = append(args, "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return where, args
}

func (s *SQLiteStore) queryStudents(ctx context.Context, query string, args ...any) ([]domain.Student, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Student
	for rows.Next() {
		entity, err := scanStudent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanStudent(scan func(dest ...any) error) (domain.Student, error) {
	var (
		entity               domain.Student
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := scan(&entity.ID, &entity.QRCodeID, &entity.Name, &entity.NIM, &entity.Email,
		&createdAt, &updatedAt, &deletedAt); err != nil {
		return domain.Student{}, err
	}
	var err error
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Student{}, err
	}
	if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Student{}, err
	}
	if entity.DeletedAt, err = storage.ParseNullTime(deletedAt); err != nil {
		return domain.Student{}, err
	}
	return entity, nil
}
