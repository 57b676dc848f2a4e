package darshan

import (
	"encoding/json"
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

type deleteImageIn struct {
	TempleID string `json:"templeId"`
	Date     string `json:"date"`
	ImageURL string `json:"imageUrl"`
}

// DeleteImage removes one image from a day's set, record and blob both.
// Deleting the last image removes the whole record for that day.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	const op = "darshan.delete_image"
	reqID := mw.RequestIDFromCtx(r.Context())

	var in deleteImageIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ImageURL == "" {
		logx.Error(h.Log, reqID, op, "bad payload", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	templeID, err := parseTempleID(in.TempleID)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	day, err := domain.ParseDay(in.Date, h.Loc)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	remaining, err := h.Svc.RemoveImage(r.Context(), templeID, day, domain.BlobRef(in.ImageURL))
	if err != nil {
		logx.Error(h.Log, reqID, op, "remove failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "removed", "temple", templeID.String(), "day", day.String(), "remaining", len(remaining))
	v1.WriteOKData(w, r, map[string]any{
		"date":   day,
		"images": remaining,
	})
}
