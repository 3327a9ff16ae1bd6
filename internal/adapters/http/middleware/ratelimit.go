// Package middleware holds the HTTP middleware chain of the API.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// idleTTL is how long a client's bucket survives without traffic.
const idleTTL = 5 * time.Minute

// RateLimiter is a per-client token bucket refilled continuously at perSecond tokens a second.
// The bucket holds at most perSecond tokens, so a client can burst one second's worth.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perSecond float64
	now       func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter creates a limiter and starts a sweeper that drops idle buckets until ctx is done.
// PRE: perSecond > 0
func NewRateLimiter(ctx context.Context, perSecond int) *RateLimiter {
	rl := &RateLimiter{
		buckets:   make(map[string]*bucket),
		perSecond: float64(perSecond),
		now:       time.Now,
	}
	go func() {
		tick := time.NewTicker(time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				rl.evictIdle()
			}
		}
	}()
	return rl
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idleTTL)
	for key, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Take spends one token for client.
// POST: ok is false when the bucket is empty; wait is then the time until a token is available
func (rl *RateLimiter) Take(client string) (ok bool, wait time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, found := rl.buckets[client]
	if !found {
		b = &bucket{tokens: rl.perSecond, seen: now}
		rl.buckets[client] = b
	}
	b.tokens = math.Min(rl.perSecond, b.tokens+now.Sub(b.seen).Seconds()*rl.perSecond)
	b.seen = now

	if b.tokens < 1 {
		return false, time.Duration((1 - b.tokens) / rl.perSecond * float64(time.Second))
	}
	b.tokens--
	return true, 0
}

// RateLimit rejects requests over the client's budget with 429 and a Retry-After header in whole seconds.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientIP(r)
			ok, wait := limiter.Take(client)
			if !ok {
				slog.Warn("rate_limit_event", "event", "rejected", "client", client, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many requests"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is RemoteAddr without the port, so all connections from one host share a bucket.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
