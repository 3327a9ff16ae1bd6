package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestRateLimiter_Take drains a bucket, checks the wait hint, then refills it partway.
func TestRateLimiter_Take(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2)
	rl.now = func() time.Time { return clock }

	steps := []struct {
		name     string
		advance  time.Duration
		client   string
		wantOK   bool
		wantWait time.Duration
	}{
		{"first", 0, "10.0.0.1", true, 0},
		{"burst", 0, "10.0.0.1", true, 0},
		{"empty", 0, "10.0.0.1", false, 500 * time.Millisecond},
		{"other client", 0, "10.0.0.2", true, 0},
		{"half second refills one", 500 * time.Millisecond, "10.0.0.1", true, 0},
		{"empty again", 0, "10.0.0.1", false, 500 * time.Millisecond},
	}
	for _, s := range steps {
		clock = clock.Add(s.advance)
		ok, wait := rl.Take(s.client)
		if ok != s.wantOK || wait != s.wantWait {
			t.Errorf("%s: Take = (%v, %v), want (%v, %v)", s.name, ok, wait, s.wantOK, s.wantWait)
		}
	}

	clock = clock.Add(10 * time.Minute)
	rl.evictIdle()
	if len(rl.buckets) != 0 {
		t.Errorf("%d idle buckets left after eviction", len(rl.buckets))
	}
}

// TestRateLimit_Rejects verifies the 429 response and that ports share one bucket.
func TestRateLimit_Rejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(NewRateLimiter(ctx, 1))(okHandler(http.StatusOK))

	var last *httptest.ResponseRecorder
	codes := make([]int, 0, 2)
	for _, addr := range []string{"192.0.2.7:5000", "192.0.2.7:5001"} {
		req := httptest.NewRequest("GET", "/api/lots", nil)
		req.RemoteAddr = addr
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 429]", codes)
	}
	if got := last.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if !strings.Contains(last.Body.String(), `"error"`) {
		t.Errorf("body = %q, want JSON error", last.Body.String())
	}
}
