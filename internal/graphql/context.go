package graphql

import (
	"context"

	"digital-library-backend/internal/domains/user"
)

type userKey struct{}

// WithUser attaches the authenticated user, which may be nil, to ctx.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user attached by WithUser.
func UserFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey{}).(*user.User)
	return u
}

func requireUser(ctx context.Context) (*user.User, error) {
	u := UserFrom(ctx)
	if u == nil {
		return nil, coded(user.ErrTokenMissing)
	}
	return u, nil
}
