// Package middleware provides bearer-token authentication for the HTTP API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const userIDKey ContextKey = "userID"

// ErrNoUser is returned by GetUserID when the request was not authenticated.
var ErrNoUser = errors.New("user ID not found in request context")

// TokenValidator validates a bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (UserIDGetter, error)
}

// UserIDGetter is an interface for extracting user ID from token claims.
type UserIDGetter interface {
	GetUserID() uuid.UUID
}

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authenticate validates the request's bearer token and returns a request
// carrying the user ID in its context.
func Authenticate(v TokenValidator, r *http.Request) (*http.Request, bool) {
	token, ok := BearerToken(r)
	if !ok {
		return r, false
	}
	claims, err := v.ValidateToken(token)
	if err != nil {
		return r, false
	}
	userID := claims.GetUserID()
	if userID == uuid.Nil {
		return r, false
	}
	return r.WithContext(WithUserID(r.Context(), userID)), true
}

// AuthMiddleware rejects requests without a valid bearer token with 401
// {"error":"Unauthorized"}.
func AuthMiddleware(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authed, ok := Authenticate(v, r)
			if !ok {
				Unauthorized(w)
				return
			}
			next.ServeHTTP(w, authed)
		})
	}
}

// OptionalAuth attaches the user ID when the request carries a valid token
// and passes every request through. Handlers decide whether to reject.
func OptionalAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authed, _ := Authenticate(v, r)
			next.ServeHTTP(w, authed)
		})
	}
}

// Unauthorized writes the 401 body shared by every protected route.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
}

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoUser
	}
	return userID, nil
}
