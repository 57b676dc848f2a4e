package darshan

import (
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

// Get serves the public retrieval endpoint. ?type= takes "today" (default),
// "yesterday" or an explicit "YYYY-MM-DD" date. A day without uploads answers
// with an empty image list rather than 404.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "darshan.get"
	reqID := mw.RequestIDFromCtx(r.Context())

	templeID, err := parseTempleID(r.PathValue("templeId"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	token := r.URL.Query().Get("type")
	if token == "" {
		token = domain.TokenToday
	}

	view, err := h.Svc.Get(r.Context(), templeID, token)
	if err != nil {
		logx.Error(h.Log, reqID, op, "get failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	v1.WriteOKData(w, r, view)
}
