package temple

import (
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

// Delete removes a temple. Its darshan records stay behind and are drained by
// the retention sweep within the usual window.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "temple.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := parseTempleID(r.PathValue("id"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	if err := h.Temples.DeleteTemple(r.Context(), id); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.invalidate(r.Context(), id)
	logx.Info(h.Log, reqID, op, "deleted", "id", id.String())
	v1.WriteOKResponse(w, r, "deleted")
}
