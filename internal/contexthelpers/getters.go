package contexthelpers

import (
	"context"
)

// UserID returns the identifier of the anonymous user owning the request or an empty string.
func UserID(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	if !ok {
		return ""
	}

	return userID
}
