package middleware

import (
	"log/slog"
	"net/http"

	"wbuilder/internal/httputil"
	"wbuilder/internal/ratelimit"
)

// KindRateLimited is reported when a caller exceeds its submission quota
const KindRateLimited = "rate_limited"

// RateLimit limits requests per authenticated user. It must run after Auth.
func RateLimit(limiter ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := httputil.GetUserID(r)
			if !limiter.Allow(r.Context(), userID) {
				logger.Warn("rate limited", "user_id", userID, "path", r.URL.Path)
				httputil.RespondKind(w, http.StatusTooManyRequests, KindRateLimited, "too many generation requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
