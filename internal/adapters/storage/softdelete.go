package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parky/internal/domain/cascade"
)

// ErrUnknownColumn is returned when a caller names a column the table does not expose.
var ErrUnknownColumn = errors.New("unknown column")

// SoftDeleteTable runs the generic reads and writes the cascade needs
// against one table that carries a nullable deleted_at column.
type SoftDeleteTable struct {
	db      SQLDB
	table   string
	columns map[string]bool
}

// NewSoftDeleteTable binds a table name and its reference columns.
// PRE: table and columns are trusted identifiers, never user input
// POST: only the listed columns may be used in lookups
func NewSoftDeleteTable(db SQLDB, table string, columns ...string) *SoftDeleteTable {
	allowed := make(map[string]bool, len(columns))
	for _, c := range columns {
		allowed[c] = true
	}
	return &SoftDeleteTable{db: db, table: table, columns: allowed}
}

// Table returns the bound table name.
func (t *SoftDeleteTable) Table() string {
	return t.table
}

// CascadeTables binds every soft-deletable collection the cascade graph walks.
func CascadeTables(db SQLDB) map[cascade.Kind]*SoftDeleteTable {
	return map[cascade.Kind]*SoftDeleteTable{
		cascade.KindLot:        NewSoftDeleteTable(db, "parking_lots"),
		cascade.KindAttendant:  NewSoftDeleteTable(db, "parking_attendants"),
		cascade.KindStudent:    NewSoftDeleteTable(db, "students"),
		cascade.KindSchedule:   NewSoftDeleteTable(db, "parking_schedules"),
		cascade.KindAssignment: NewSoftDeleteTable(db, "parking_assignments", "parking_lot_id", "parking_attendant_id", "parking_schedule_id"),
		cascade.KindVehicle:    NewSoftDeleteTable(db, "vehicles", "student_id"),
	}
}

// MarkDeleted stamps deleted_at on an active row.
// POST: returns false when the row is missing or already deleted
func (t *SoftDeleteTable) MarkDeleted(ctx context.Context, id string, at time.Time) (bool, error) {
	stamp := FormatTime(at)
	res, err := t.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", t.table),
		stamp, stamp, id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete %s %s: %w", t.table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsActive reports whether id exists and is not soft-deleted.
func (t *SoftDeleteTable) IsActive(ctx context.Context, id string) (bool, error) {
	var n int
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ? AND deleted_at IS NULL", t.table), id,
	).Scan(&n)
	return n > 0, err
}

// ActiveIDsWhere lists active rows whose column equals value, oldest first.
func (t *SoftDeleteTable) ActiveIDsWhere(ctx context.Context, column, value string) ([]string, error) {
	if !t.columns[column] {
		return nil, fmt.Errorf("%s.%s: %w", t.table, column, ErrUnknownColumn)
	}
	rows, err := t.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE %s = ? AND deleted_at IS NULL ORDER BY created_at, id", t.table, column), value,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AnyActiveWhere reports whether at least one active row has column equal to value.
func (t *SoftDeleteTable) AnyActiveWhere(ctx context.Context, column, value string) (bool, error) {
	if !t.columns[column] {
		return false, fmt.Errorf("%s.%s: %w", t.table, column, ErrUnknownColumn)
	}
	var n int
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND deleted_at IS NULL", t.table, column), value,
	).Scan(&n)
	return n > 0, err
}

// RefValue returns the value of column on row id, whether or not the row is deleted.
func (t *SoftDeleteTable) RefValue(ctx context.Context, id, column string) (string, error) {
	if !t.columns[column] {
		return "", fmt.Errorf("%s.%s: %w", t.table, column, ErrUnknownColumn)
	}
	var v string
	err := t.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", column, t.table), id,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s %s not found: %w", t.table, id, ErrNotFound)
	}
	return v, err
}
