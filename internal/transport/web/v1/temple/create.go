package temple

import (
	"encoding/json"
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

type createIn struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Create registers a new temple. Name is the only mandatory field.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "temple.create"
	reqID := mw.RequestIDFromCtx(r.Context())

	var in createIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		logx.Error(h.Log, reqID, op, "bad payload", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	t, err := h.Temples.CreateTemple(r.Context(), domain.Temple{
		Name:        in.Name,
		Image:       in.Image,
		Location:    in.Location,
		Description: in.Description,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.invalidate(r.Context(), t.ID)
	logx.Info(h.Log, reqID, op, "created", "id", t.ID.String(), "name", t.Name)
	v1.WriteCreatedData(w, r, t)
}
