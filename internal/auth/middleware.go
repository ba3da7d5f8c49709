package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	httperrors "github.com/prepdesk/exam-platform/pkg/http/errors"
)

// RequireAdmin wraps a handler so only a bearer token with the admin role
// reaches it.
func RequireAdmin(mgr *Manager, logger zerolog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid authorization header")
			return
		}

		claims, err := mgr.Validate(parts[1])
		if err != nil {
			logger.Warn().Err(err).Msg("token validation failed")
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
			return
		}
		if claims.Role != RoleAdmin {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Admin role required")
			return
		}

		next.ServeHTTP(w, r)
	}
}
