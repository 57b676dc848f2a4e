package mw

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey string

const reqIDKey ctxKey = "request_id"

// WithRequestID attaches a request id to the context and response headers,
// reusing the caller's X-Request-ID when present.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), reqIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey).(string)
	return id
}
