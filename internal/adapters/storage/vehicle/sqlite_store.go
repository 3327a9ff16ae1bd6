package vehicle

import (
	"context"
	"database/sql"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/vehicle"
)

const vehicleColumns = "id, student_id, plate, created_at, updated_at, deleted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new vehicle store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a Vehicle to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Vehicle) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vehicles (`+vehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET plate=excluded.plate, updated_at=excluded.updated_at, deleted_at=excluded.deleted_at`,
		entity.ID, entity.StudentID, entity.PlateNumber,
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt),
		storage.NullTimeValue(entity.DeletedAt),
	)
	return err
}

// ListByStudent returns every vehicle of a student, deleted or not, oldest first.
func (s *SQLiteStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Vehicle, error) {
	return s.queryVehicles(ctx, "SELECT "+vehicleColumns+" FROM vehicles WHERE student_id = ? ORDER BY created_at, id", studentID)
}

// ListAll returns every vehicle including soft-deleted ones.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Vehicle, error) {
	return s.queryVehicles(ctx, "SELECT "+vehicleColumns+" FROM vehicles ORDER BY created_at, id")
}

func (s *SQLiteStore) queryVehicles(ctx context.Context, query string, args ...any) ([]domain.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Vehicle
	for rows.Next() {
		var (
			entity               domain.Vehicle
			createdAt, updatedAt string
			deletedAt            sql.NullString
		)
		if err := rows.Scan(&entity.ID, &entity.StudentID, &entity.PlateNumber, &createdAt, &updatedAt, &deletedAt); err != nil {
			return nil, err
		}
		if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
			return nil, err
		}
		if entity.DeletedAt, err = storage.ParseNullTime(deletedAt); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
