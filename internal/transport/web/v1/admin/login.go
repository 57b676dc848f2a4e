package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

// Login verifies admin credentials and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "admin.login"
	reqID := mw.RequestIDFromCtx(r.Context())

	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Password == "" {
		logx.Error(h.Log, reqID, op, "bad login payload", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	a, err := h.Admins.AdminByUsername(r.Context(), in.Username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logx.Error(h.Log, reqID, op, "admin lookup failed", err)
			v1.WriteDomainError(w, r, domain.ErrUnexpected)
			return
		}
		// same answer for unknown user and wrong password
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	ok, err := h.Hasher.Verify(in.Password, a.PassHash)
	if err != nil {
		logx.Error(h.Log, reqID, op, "hash verify failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}
	if !ok {
		logx.Info(h.Log, reqID, op, "wrong password", "username", in.Username)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	tok, claims, err := h.Tokens.Issue(r.Context(), a, h.TokenTTL)
	if err != nil {
		logx.Error(h.Log, reqID, op, "token issue failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "logged in", "username", a.Username)
	v1.WriteOKData(w, r, map[string]any{
		"id":         a.ID,
		"username":   a.Username,
		"token":      tok,
		"expires_at": claims.ExpiresAt,
	})
}
