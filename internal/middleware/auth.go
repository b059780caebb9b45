package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/stepsquad/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// DisplayNameKey is the context key for the authenticated user's display name.
	DisplayNameKey contextKey = "display_name"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetDisplayName extracts the caller's display name from the context.
func GetDisplayName(ctx context.Context) string {
	name, _ := ctx.Value(DisplayNameKey).(string)
	return name
}

// WithUserID returns a context carrying userID as the caller.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the user ID and display name to the request context.
// Procedures listed in public may be called without a token.
func RequireAuth(jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				if open[req.Spec().Procedure] {
					return next(ctx, req)
				}
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			ctx = WithUserID(ctx, claims.UserID)
			ctx = context.WithValue(ctx, DisplayNameKey, claims.DisplayName)

			return next(ctx, req)
		}
	}
}
