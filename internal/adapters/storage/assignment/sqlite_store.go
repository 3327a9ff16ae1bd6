package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/assignment"
)

const assignmentColumns = "id, parking_lot_id, parking_schedule_id, parking_attendant_id, created_at, updated_at, deleted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new assignment store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Assignment by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Assignment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+assignmentColumns+" FROM parking_assignments WHERE id = ?", id)
	entity, err := scanAssignment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Assignment{}, fmt.Errorf("assignment %s not found: %w", id, storage.ErrNotFound)
	}
	return entity, err
}

// Save persists an Assignment to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Assignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_assignments (`+assignmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET parking_lot_id=excluded.parking_lot_id,
			parking_schedule_id=excluded.parking_schedule_id, parking_attendant_id=excluded.parking_attendant_id,
			updated_at=excluded.updated_at, deleted_at=excluded.deleted_at`,
		entity.ID, entity.LotID, entity.ScheduleID, entity.AttendantID,
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt),
		storage.NullTimeValue(entity.DeletedAt),
	)
	return err
}

// ListActiveByLotAndSchedule lists active assignments for one lot and schedule, oldest first.
// More than one row means an earlier write raced; callers keep the first.
func (s *SQLiteStore) ListActiveByLotAndSchedule(ctx context.Context, lotID, scheduleID string) ([]domain.Assignment, error) {
	return s.queryAssignments(ctx,
		"SELECT "+assignmentColumns+" FROM parking_assignments WHERE parking_lot_id = ? AND parking_schedule_id = ? AND deleted_at IS NULL ORDER BY created_at, id",
		lotID, scheduleID,
	)
}

// ListActiveByLot lists active assignments for one lot, oldest first.
func (s *SQLiteStore) ListActiveByLot(ctx context.Context, lotID string) ([]domain.Assignment, error) {
	return s.queryAssignments(ctx,
		"SELECT "+assignmentColumns+" FROM parking_assignments WHERE parking_lot_id = ? AND deleted_at IS NULL ORDER BY created_at, id",
		lotID,
	)
}

// ListAll returns every assignment including soft-deleted ones.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Assignment, error) {
	return s.queryAssignments(ctx, "SELECT "+assignmentColumns+" FROM parking_assignments ORDER BY created_at, id")
}

// ListActiveBookings joins active assignments with the day of their active schedule.
// POST: assignments whose schedule is missing or deleted are omitted
func (s *SQLiteStore) ListActiveBookings(ctx context.Context) ([]domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.parking_lot_id, a.parking_schedule_id, a.parking_attendant_id,
			a.created_at, a.updated_at, a.deleted_at, s.day_of_week
		FROM parking_assignments a
		JOIN parking_schedules s ON s.id = a.parking_schedule_id
		WHERE a.deleted_at IS NULL AND s.deleted_at IS NULL
		ORDER BY a.created_at, a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Booking
	for rows.Next() {
		var day string
		entity, err := scanAssignment(func(dest ...any) error {
			return rows.Scan(append(dest, &day)...)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, domain.Booking{Assignment: entity, Day: day})
	}
	return results, rows.Err()
}

func (s *SQLiteStore) queryAssignments(ctx context.Context, query string, args ...any) ([]domain.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Assignment
	for rows.Next() {
		entity, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanAssignment(scan func(dest ...any) error) (domain.Assignment, error) {
	var (
		entity               domain.Assignment
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := scan(&entity.ID, &entity.LotID, &entity.ScheduleID, &entity.AttendantID,
		&createdAt, &updatedAt, &deletedAt); err != nil {
		return domain.Assignment{}, err
	}
	var err error
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Assignment{}, err
	}
	if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Assignment{}, err
	}
	if entity.DeletedAt, err = storage.ParseNullTime(deletedAt); err != nil {
		return domain.Assignment{}, err
	}
	return entity, nil
}
