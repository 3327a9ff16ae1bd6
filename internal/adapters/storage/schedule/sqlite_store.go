package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/schedule"
)

const scheduleColumns = "id, day_of_week, open_time, closed_time, is_closed, created_at, updated_at, deleted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new schedule store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Schedule by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Schedule, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM parking_schedules WHERE id = ?", id)
	entity, err := scanSchedule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, fmt.Errorf("schedule %s not found: %w", id, storage.ErrNotFound)
	}
	return entity, err
}

// FindActiveByDay returns the oldest active schedule for day.
// PRE: day is a valid day key
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) FindActiveByDay(ctx context.Context, day string) (domain.Schedule, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+scheduleColumns+" FROM parking_schedules WHERE day_of_week = ? AND deleted_at IS NULL ORDER BY created_at, id LIMIT 1",
		day,
	)
	entity, err := scanSchedule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, fmt.Errorf("schedule for %s not found: %w", day, storage.ErrNotFound)
	}
	return entity, err
}

// Save persists a Schedule to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Schedule) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_schedules (`+scheduleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET day_of_week=excluded.day_of_week, open_time=excluded.open_time,
			closed_time=excluded.closed_time, is_closed=excluded.is_closed,
			updated_at=excluded.updated_at, deleted_at=excluded.deleted_at`,
		entity.ID, entity.Day, entity.OpenTime, entity.ClosedTime, storage.BoolValue(entity.IsClosed),
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt),
		storage.NullTimeValue(entity.DeletedAt),
	)
	return err
}

// ListAll returns every schedule including soft-deleted ones.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+scheduleColumns+" FROM parking_schedules ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Schedule
	for rows.Next() {
		entity, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanSchedule(scan func(dest ...any) error) (domain.Schedule, error) {
	var (
		entity               domain.Schedule
		isClosed             int
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := scan(&entity.ID, &entity.Day, &entity.OpenTime, &entity.ClosedTime, &isClosed,
		&createdAt, &updatedAt, &deletedAt); err != nil {
		return domain.Schedule{}, err
	}
	entity.IsClosed = isClosed == 1
	var err error
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Schedule{}, err
	}
	if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Schedule{}, err
	}
	if entity.DeletedAt, err = storage.ParseNullTime(deletedAt); err != nil {
		return domain.Schedule{}, err
	}
	return entity, nil
}
