package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"suraksha/pkg/requestcontext"
)

// Middleware limits requests per client IP. A failed store check lets the
// request through; throttling is protection, not a gate the service can
// afford to fail closed on.
func Middleware(store Store, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := "ip:" + requestcontext.ClientIP(ctx)

			result, err := store.Allow(ctx, key, limit, window)
			if err != nil {
				if logger != nil {
					logger.ErrorContext(ctx, "rate limit check failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := max(int(time.Until(result.ResetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests, slow down"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
