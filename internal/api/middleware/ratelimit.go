package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/docuflow/docuflow/internal/cache"
)

// Counter is the shared fixed-window counter behind the limiter. Satisfied
// by cache.Cache.
type Counter interface {
	CountInWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

var _ Counter = (*cache.Cache)(nil)

// RateLimiter enforces a fixed window per client IP and route, shared across
// instances through redis. Each route wrapped by the same limiter gets its
// own budget; the OTP routes each run at 5 requests per minute.
type RateLimiter struct {
	counter Counter
	name    string
	limit   int64
	window  time.Duration
}

func NewRateLimiter(c Counter, name string, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{counter: c, name: name, limit: limit, window: window}
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + rl.name + ":" + r.URL.Path + ":" + clientIP(r)
		n, err := rl.counter.CountInWindow(r.Context(), key, rl.window)
		if err != nil {
			// A limiter outage should not take the route down with it.
			next.ServeHTTP(w, r)
			return
		}
		if n > rl.limit {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"message": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
