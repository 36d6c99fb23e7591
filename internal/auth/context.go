package auth

import (
	"context"
	"net/http"
)

type ctxKey int

const userIDKey ctxKey = 1

// WithUserID stores the authenticated user ID on a context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID extracts the authenticated user ID from the request context.
func UserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value(userIDKey).(int64)
	return uid, ok
}
