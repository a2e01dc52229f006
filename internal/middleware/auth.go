package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
)

type authCtxKey string

const userIDKey authCtxKey = "userID"

// UserIDFrom returns the authenticated user id, or "" for anonymous requests.
func UserIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RequireAuth rejects requests lacking a valid access token with 401 before
// the handler runs. The token may arrive as a bearer header or as the
// accessToken cookie.
func RequireAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractAccessToken(r)
			if token == "" {
				unauthorized(w, "unauthorized request")
				return
			}

			claims, err := tokens.VerifyAccess(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("access token rejected", "error", err)
				unauthorized(w, "invalid access token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the viewer identity when a valid access token is
// present and lets the request through anonymously otherwise.
func OptionalAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractAccessToken(r); token != "" {
				if claims, err := tokens.VerifyAccess(token); err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAccessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"success":    false,
		"errors":     []string{},
	})
}
