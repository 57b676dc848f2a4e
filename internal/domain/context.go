package domain

import "context"

// Key for the authenticated admin in the HTTP request context
type ctxKey int

const adminCtxKey ctxKey = 1

func WithAdmin(ctx context.Context, a Admin) context.Context {
	return context.WithValue(ctx, adminCtxKey, a)
}

func AdminFromCtx(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(adminCtxKey).(Admin)
	return a, ok
}
