package ctxkeys

import (
	"context"

	"github.com/templui/recipehub/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey      contextKey = "user"
	RequestIDKey contextKey = "request_id"
)

// User returns the authenticated caller, or nil for anonymous requests.
func User(ctx context.Context) *model.SessionUser {
	user, _ := ctx.Value(UserKey).(*model.SessionUser)
	return user
}

func WithUser(ctx context.Context, user *model.SessionUser) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
