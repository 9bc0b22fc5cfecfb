package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"campaign-server/internal/auth"
	"campaign-server/internal/shared/config"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

func isReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// JWT requires a valid game master token on mutating requests. Reads pass
// through untouched. When auth is disabled every request passes.
func JWT(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isReadOnly(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			logger := slog.With(
				"middleware", "jwt",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			token := auth.TokenFromRequest(r)
			if token == "" {
				response.Error(w, r, logger, errors.Unauthorized("authentication required"))
				return
			}

			claims, err := auth.ValidateToken(cfg.JWTSecret, token)
			if err != nil {
				response.Error(w, r, logger, errors.Unauthorized("invalid token"))
				return
			}

			if !claims.CanWrite() {
				logger.Warn("Read-only token attempted a write", "owner", claims.Owner, "role", claims.Role)
				response.Error(w, r, logger, errors.Forbidden("game master access required"))
				return
			}

			logger.Debug("JWT authentication successful", "owner", claims.Owner)
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaimsFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(ClaimsContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
