package auth

import (
	"context"

	"github.com/dmitrymomot/authkit/svc/user"
)

type userContextKey struct{}

// SetUserToContext stores authenticated user in context for middleware chain access.
func SetUserToContext(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// GetUserFromContext retrieves authenticated user from context.
// Returns nil if user was not previously stored.
func GetUserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userContextKey{}).(*user.User)
	return u
}
