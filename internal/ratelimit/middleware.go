package ratelimit

import (
	"net/http"

	"github.com/ScrubLabs/scrub-web/internal/clientip"
	"github.com/ScrubLabs/scrub-web/internal/logger"
)

// Middleware applies per-client rate limiting using the composite key
// extracted by clientip.Middleware.
func Middleware(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientip.FromRequest(r).RateLimitKey
			if !limiter.Allow(r.Context(), key) {
				logger.Ctx(r.Context()).Warn("rate limit exceeded",
					"key", key, "path", r.URL.Path)
				http.Error(w, "Rate limit exceeded. Please try again later.",
					http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
