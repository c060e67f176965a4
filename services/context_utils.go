package services

import (
	"context"
	"time"
)

type principalKey struct{}

// WithPrincipal attaches the calling user's id to ctx.
func WithPrincipal(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, principalKey{}, userID)
}

// PrincipalFromContext returns the calling user's id, if any.
func PrincipalFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	userID, ok := ctx.Value(principalKey{}).(int)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func requirePrincipal(ctx context.Context) (int, error) {
	userID, ok := PrincipalFromContext(ctx)
	if !ok {
		return 0, ErrNotAuthenticated
	}
	return userID, nil
}

func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
