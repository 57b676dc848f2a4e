package mw

import (
	"net/http"
	"strings"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

type AuthDeps struct {
	Tokens domain.TokenManager
}

// RequireAuth guards admin routes: a valid Bearer token is mandatory.
func RequireAuth(deps AuthDeps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r.Header.Get("Authorization"))
		if raw == "" {
			unauthorized(w)
			return
		}
		claims, err := deps.Tokens.Parse(r.Context(), domain.Token(raw))
		if err != nil {
			unauthorized(w)
			return
		}
		a := domain.Admin{ID: claims.AdminID, Username: claims.Username}
		next.ServeHTTP(w, r.WithContext(domain.WithAdmin(r.Context(), a)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":1001,"text":"unauthorized"}}`))
}

func extractBearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
