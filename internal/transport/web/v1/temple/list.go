package temple

import (
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

// List returns every temple, cached under a single list key.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "temple.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	var cached []domain.Temple
	if h.cacheGet(r.Context(), domain.CacheKeyTemplesList, &cached) {
		v1.WriteOKData(w, r, cached)
		return
	}

	ts, err := h.Temples.TemplesList(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	if ts == nil {
		ts = []domain.Temple{}
	}

	h.cacheSet(r.Context(), domain.CacheKeyTemplesList, ts)
	v1.WriteOKData(w, r, ts)
}
