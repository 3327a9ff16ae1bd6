package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"parky/internal/adapters/http/perf"
)

// DefaultSlowRequest is used when Timing is given a non-positive threshold.
const DefaultSlowRequest = 200 * time.Millisecond

// RequestIDHeader carries the per-process request sequence number back to the caller.
const RequestIDHeader = "X-Request-Id"

var requestSeq atomic.Uint64

// recorder remembers the status written through it; 200 when the handler never calls WriteHeader.
type recorder struct {
	http.ResponseWriter
	status int
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Timing measures every API request, logs it, and feeds the perf collector.
// Requests at or above threshold log at WARN, the rest at DEBUG.
// Static assets and /healthz are passed through untouched.
// POST: perf entries are keyed by method plus RouteLabel(path)
func Timing(collector *perf.Collector, threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			id := requestSeq.Add(1)
			w.Header().Set(RequestIDHeader, strconv.FormatUint(id, 10))
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			route := r.Method + " " + RouteLabel(r.URL.Path)
			level := slog.LevelDebug
			msg := "request"
			if elapsed >= threshold {
				level, msg = slog.LevelWarn, "slow_request"
			}
			slog.Log(r.Context(), level, msg,
				"request_id", id,
				"route", route,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", float64(elapsed.Microseconds())/1000.0,
			)

			if collector != nil {
				collector.Record(perf.Entry{
					Kind:       perf.KindRequest,
					Path:       route,
					StatusCode: rec.status,
					DurationMs: float64(elapsed.Microseconds()) / 1000.0,
					Timestamp:  start,
				})
			}
		})
	}
}

// RouteLabel replaces record IDs in a path with {id} so one route aggregates as one perf row.
// Example: /api/lots/0b6f.../week becomes /api/lots/{id}/week.
func RouteLabel(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if _, err := uuid.Parse(s); err == nil {
			segs[i] = "{id}"
		}
	}
	return strings.Join(segs, "/")
}
