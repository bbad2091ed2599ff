package httpx

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-clothing-rental/internal/redisx"
)

// RateLimiter is satisfied by *redisx.Limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Duration, err error)
}

// RateLimit limits by client IP and route. Limiter errors fail open.
func RateLimit(l RateLimiter, max int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf(redisx.KeyRateLimit, routeOf(r), clientIP(r))
			ok, remaining, reset, err := l.Allow(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			resetSec := int(reset.Seconds())
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
			if !ok {
				if resetSec > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(resetSec))
				}
				writeError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// clientIP expects middleware.RealIP to have run already.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
