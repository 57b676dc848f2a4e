package temple

import (
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

// GetOne returns a single temple by path id.
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "temple.get"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := parseTempleID(r.PathValue("id"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	var cached domain.Temple
	if h.cacheGet(r.Context(), domain.CacheKeyTemple(id), &cached) {
		v1.WriteOKData(w, r, cached)
		return
	}

	t, err := h.Temples.TempleByID(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "lookup failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.cacheSet(r.Context(), domain.CacheKeyTemple(id), t)
	v1.WriteOKData(w, r, t)
}
