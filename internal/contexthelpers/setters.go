package contexthelpers

import (
	"context"
	"net/http"
)

// WithUserID stores the user identifier in ctx. Non-HTTP callers such as tests use this directly.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

func SetUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(WithUserID(r.Context(), userID))
}
