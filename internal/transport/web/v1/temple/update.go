package temple

import (
	"encoding/json"
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

type updateIn struct {
	Name        *string `json:"name"`
	Image       *string `json:"image"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

// Update patches a temple; absent fields keep their stored values.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "temple.update"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := parseTempleID(r.PathValue("id"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	var in updateIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logx.Error(h.Log, reqID, op, "bad payload", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if in.Name == nil && in.Image == nil && in.Location == nil && in.Description == nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if in.Name != nil && *in.Name == "" {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	t, err := h.Temples.UpdateTemple(r.Context(), id, domain.TemplePatch{
		Name:        in.Name,
		Image:       in.Image,
		Location:    in.Location,
		Description: in.Description,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "update failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.invalidate(r.Context(), id)
	logx.Info(h.Log, reqID, op, "updated", "id", id.String())
	v1.WriteOKData(w, r, t)
}
