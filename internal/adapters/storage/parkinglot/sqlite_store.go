package parkinglot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parky/internal/adapters/storage"
	domain "parky/internal/domain/parkinglot"
)

const lotColumns = "id, name, max_capacity, latitude, longitude, is_active, inactive_description, created_at, updated_at, deleted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new parking lot store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Lot by its ID, deleted or not.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Lot, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+lotColumns+" FROM parking_lots WHERE id = ?", id)
	entity, err := scanLot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lot{}, fmt.Errorf("parking lot %s not found: %w", id, storage.ErrNotFound)
	}
	return entity, err
}

// Save persists a Lot to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); created_at is never overwritten
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Lot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_lots (`+lotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, max_capacity=excluded.max_capacity,
			latitude=excluded.latitude, longitude=excluded.longitude, is_active=excluded.is_active,
			inactive_description=excluded.inactive_description, updated_at=excluded.updated_at,
			deleted_at=excluded.deleted_at`,
		entity.ID, entity.Name, entity.MaxCapacity, entity.Latitude, entity.Longitude,
		storage.BoolValue(entity.IsActive), entity.InactiveDescription,
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt),
		storage.NullTimeValue(entity.DeletedAt),
	)
	return err
}

// List retrieves active lots matching the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Lot, error) {
	where, args := listWhereClause(filter)
	query := "SELECT " + lotColumns + " FROM parking_lots" + where + sortClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)
	return s.queryLots(ctx, query, args...)
}

// Count returns the number of active lots matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM parking_lots"+where, args...).Scan(&n)
	return n, err
}

// ListAll returns every lot including soft-deleted ones.
// Aggregations decide activeness themselves.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Lot, error) {
	return s.queryLots(ctx, "SELECT "+lotColumns+" FROM parking_lots ORDER BY created_at, id")
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE deleted_at IS NULL"
	var args []any
	if filter.Search != "" {
		where += " AND name LIKE ? COLLATE NOCASE"
		args = append(args, "%"+filter.Search+"%")
	}
	return where, args
}

func sortClause(filter ListFilter) string {
	col := "name COLLATE NOCASE"
	switch filter.Sort {
	case "max_capacity", "created_at":
		col = filter.Sort
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", id"
}

func (s *SQLiteStore) queryLots(ctx context.Context, query string, args ...any) ([]domain.Lot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Lot
	for rows.Next() {
		entity, err := scanLot(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanLot(scan func(dest ...any) error) (domain.Lot, error) {
	var (
		entity               domain.Lot
		isActive             int
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := scan(&entity.ID, &entity.Name, &entity.MaxCapacity, &entity.Latitude, &entity.Longitude,
		&isActive, &entity.InactiveDescription, &createdAt, &updatedAt, &deletedAt); err != nil {
		return domain.Lot{}, err
	}
	entity.IsActive = isActive == 1
	var err error
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Lot{}, err
	}
	if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Lot{}, err
	}
	if entity.DeletedAt, err = storage.ParseNullTime(deletedAt); err != nil {
		return domain.Lot{}, err
	}
	return entity, nil
}
