package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"parky/internal/adapters/http/perf"
)

// SQLDB is what every store needs from a database. *sql.DB and *TimedDB both satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery is used when NewTimedDB receives a non-positive threshold.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB times every statement, logs slow ones and feeds the perf collector.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	threshold time.Duration
}

// NewTimedDB wraps db. collector may be nil.
// POST: statements at or above threshold are logged at WARN as slow_query
func NewTimedDB(db *sql.DB, collector *perf.Collector, threshold time.Duration) *TimedDB {
	if threshold <= 0 {
		threshold = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, threshold: threshold}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return timed(t, query, func() (sql.Result, error) { return t.db.ExecContext(ctx, query, args...) })
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return timed(t, query, func() (*sql.Rows, error) { return t.db.QueryContext(ctx, query, args...) })
}

// QueryRowContext errors surface on Scan, so the entry is never marked failed.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	row, _ := timed(t, query, func() (*sql.Row, error) { return t.db.QueryRowContext(ctx, query, args...), nil })
	return row
}

// PingContext backs /healthz. It is not timed.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func timed[T any](t *TimedDB, query string, run func() (T, error)) (T, error) {
	start := time.Now()
	out, err := run()
	elapsed := time.Since(start)

	label := statementLabel(query)
	ms := float64(elapsed.Microseconds()) / 1000.0
	switch {
	case elapsed >= t.threshold:
		slog.Warn("slow_query", "statement", label, "duration_ms", ms, "error", err)
	case err != nil:
		slog.Debug("query_failed", "statement", label, "duration_ms", ms, "error", err)
	}
	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindQuery,
			Path:       label,
			DurationMs: ms,
			Timestamp:  start,
			Failed:     err != nil,
		})
	}
	return out, err
}

// statementLabel reduces SQL to "<verb> <table>" so perf groups statements per table.
// Statements it cannot place keep only the verb.
func statementLabel(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return "empty"
	}
	verb := fields[0]
	var marker string
	switch verb {
	case "select", "delete":
		marker = "from"
	case "insert", "replace":
		marker = "into"
	case "update":
		if len(fields) > 1 {
			return verb + " " + fields[1]
		}
		return verb
	default:
		return verb
	}
	for i, f := range fields[:len(fields)-1] {
		if f == marker {
			table, _, _ := strings.Cut(fields[i+1], "(")
			return verb + " " + strings.Trim(table, ",)")
		}
	}
	return verb
}
