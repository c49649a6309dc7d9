package middleware

import (
	"io"
	"net/http"
	"strings"

	"github.com/lastcall-app/lastcall/internal/auth"
)

// writeAuthError writes a 401 in the standard error envelope. The api
// package depends on middleware, so the body is built here by hand.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, `{"error":{"code":"auth_failed","message":"`+message+`"}}`)
}

// RequireAuth validates the Bearer token on each request and stores the
// authenticated user ID in the request context (readable via GetUserID).
// Refresh tokens are rejected: only access tokens grant API access.
func RequireAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				ctx := SetErrorCode(r.Context(), "auth_failed")
				UpdateResponseContext(w, ctx)
				writeAuthError(w, "Authorization header is required")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				ctx := SetErrorCode(r.Context(), "auth_failed")
				UpdateResponseContext(w, ctx)
				writeAuthError(w, "Authorization header must be 'Bearer <token>'")
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				ctx := SetErrorCode(r.Context(), "auth_failed")
				UpdateResponseContext(w, ctx)
				if err == auth.ErrExpiredToken {
					writeAuthError(w, "Token has expired")
				} else {
					writeAuthError(w, "Invalid token")
				}
				return
			}

			if claims.Type != auth.TokenTypeAccess {
				ctx := SetErrorCode(r.Context(), "auth_failed")
				UpdateResponseContext(w, ctx)
				writeAuthError(w, "Access token required")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
