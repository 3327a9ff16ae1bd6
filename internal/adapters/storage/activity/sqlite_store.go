package activity

import (
	"context"
	"database/sql"
	"time"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/activity"
)

const (
	activityColumns = "id, student_id, parking_lot_id, parking_history_id, vehicle_in_count, created_at, updated_at"
	historyColumns  = "id, status, parked_at, exited_at, created_at, updated_at"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new activity store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// SaveActivity persists an Activity.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) SaveActivity(ctx context.Context, entity domain.Activity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_activities (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET vehicle_in_count=excluded.vehicle_in_count, updated_at=excluded.updated_at`,
		entity.ID, entity.StudentID, entity.LotID, entity.HistoryID, entity.VehicleInCount,
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt),
	)
	return err
}

// SaveHistory persists a History.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) SaveHistory(ctx context.Context, entity domain.History) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_histories (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, parked_at=excluded.parked_at,
			exited_at=excluded.exited_at, updated_at=excluded.updated_at`,
		entity.ID, entity.Status, storage.NullTimeValue(entity.ParkedAt), storage.NullTimeValue(entity.ExitedAt),
		storage.FormatTime(entity.CreatedAt), storage.NullTimeValue(entity.UpdatedAt),
	)
	return err
}

// ListActivities returns every activity, oldest first.
func (s *SQLiteStore) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	return s.queryActivities(ctx, "SELECT "+activityColumns+" FROM parking_activities ORDER BY created_at, id")
}

// ListActivitiesBetween returns activities created within [start, end].
// PRE: start <= end
func (s *SQLiteStore) ListActivitiesBetween(ctx context.Context, start, end time.Time) ([]domain.Activity, error) {
	return s.queryActivities(ctx,
		"SELECT "+activityColumns+" FROM parking_activities WHERE created_at >= ? AND created_at <= ? ORDER BY created_at, id",
		storage.FormatTime(start), storage.FormatTime(end),
	)
}

// ListHistories returns every history.
func (s *SQLiteStore) ListHistories(ctx context.Context) ([]domain.History, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+historyColumns+" FROM parking_histories ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.History
	for rows.Next() {
		var (
			entity                        domain.History
			parkedAt, exitedAt, updatedAt sql.NullString
			createdAt                     string
		)
		if err := rows.Scan(&entity.ID, &entity.Status, &parkedAt, &exitedAt, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if entity.ParkedAt, err = storage.ParseNullTime(parkedAt); err != nil {
			return nil, err
		}
		if entity.ExitedAt, err = storage.ParseNullTime(exitedAt); err != nil {
			return nil, err
		}
		if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if entity.UpdatedAt, err = storage.ParseNullTime(updatedAt); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) queryActivities(ctx context.Context, query string, args ...any) ([]domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Activity
	for rows.Next() {
		var (
			entity               domain.Activity
			createdAt, updatedAt string
		)
		if err := rows.Scan(&entity.ID, &entity.StudentID, &entity.LotID, &entity.HistoryID,
			&entity.VehicleInCount, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
