package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"wbuilder/internal/auth"
	"wbuilder/internal/domain"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/httputil"
)

// Auth verifies the bearer token and provisions the caller on first sight.
// The user id is stored in the request context for handlers.
func Auth(verifier auth.JWTVerifier, ledger services.CreditLedger, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondKind(w, http.StatusUnauthorized, domain.KindUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				httputil.RespondKind(w, http.StatusUnauthorized, domain.KindUnauthorized, "invalid token")
				return
			}

			userID := claims.GetUserID()
			if _, err := ledger.EnsureUser(r.Context(), userID, claims.Email); err != nil {
				logger.Error("provision user", "user_id", userID, "error", err)
				httputil.RespondKind(w, http.StatusInternalServerError, domain.KindInternal, "internal server error")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}
