package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a per-tenant token bucket. Requests
// without an authenticated tenant are rejected, so this must run after
// AuthMiddleware.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		var limiters sync.Map // tenant ID -> *rate.Limiter

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, ok := TenantFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := getOrCreateLimiter(&limiters, tenant.ID, rps, burst)
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getOrCreateLimiter(limiters *sync.Map, tenantID string, rps float64, burst int) *rate.Limiter {
	if l, ok := limiters.Load(tenantID); ok {
		return l.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	actual, _ := limiters.LoadOrStore(tenantID, limiter)
	return actual.(*rate.Limiter)
}
