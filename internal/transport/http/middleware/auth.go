package middleware

import (
	"context"
	"net/http"
	"strings"

	"jmgallery/internal/httputil"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"

	// TokenIDKey is the context key for the presenting token's ID.
	// Logout revokes exactly this token.
	TokenIDKey contextKey = "token_id"
)

// TokenAuthenticator validates a presented bearer token and resolves the
// bound user and token ids.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, tokenString string) (userID int64, tokenID string, err error)
}

// AuthMiddleware creates a middleware that validates bearer tokens.
// A token is accepted only when its signature verifies and its stored row
// is neither revoked nor expired.
func AuthMiddleware(auth TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Expected format: "Bearer <token>"
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			userID, tokenID, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, TokenIDKey, tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetTokenIDFromContext extracts the presenting token's ID from the context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}
