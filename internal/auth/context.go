package auth

import (
	"context"
	"time"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/model"
)

type contextKey struct{}

// Identity is the caller established from a verified session token.
type Identity struct {
	UserID   int64
	Username string
	Role     model.Role
	// ExpiresAt is when the token that established the identity expires.
	// Zero means no expiry is known.
	ExpiresAt time.Time
}

func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// RequireUser returns the caller identity or ErrUnauthenticated.
func RequireUser(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, apperr.ErrUnauthenticated
	}
	return id, nil
}

// RequireAdmin returns the caller identity if it carries the admin role.
func RequireAdmin(ctx context.Context) (Identity, error) {
	id, err := RequireUser(ctx)
	if err != nil {
		return Identity{}, err
	}
	if !id.IsAdmin() {
		return Identity{}, apperr.ErrForbidden
	}
	return id, nil
}

func UserID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return id.UserID
}

func IsAdmin(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	return ok && id.IsAdmin()
}
