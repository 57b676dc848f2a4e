package darshan

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/mandirapp/daily-darshan/internal/darshan"
	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/logx"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
	v1 "github.com/mandirapp/daily-darshan/internal/transport/web/v1"
)

// memLimit is how much of the multipart body is buffered in memory before
// spilling to temp files. The total body size is capped by the router.
const memLimit = 32 << 20

// Upload accepts a multipart batch under the "images" field and publishes it
// as the temple's set for the given (or current) day. A repeated upload for
// the same day replaces the previous set wholesale.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "darshan.upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	if err := r.ParseMultipartForm(memLimit); err != nil {
		logx.Error(h.Log, reqID, op, "bad multipart body", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	templeID, err := parseTempleID(r.FormValue("templeId"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	// the temple must exist before photos get attached to it
	if _, err := h.Temples.TempleByID(r.Context(), templeID); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	at := time.Now()
	if d := r.FormValue("date"); d != "" {
		day, err := domain.ParseDay(d, h.Loc)
		if err != nil {
			v1.WriteDomainError(w, r, err)
			return
		}
		at = day.Time()
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if len(files) > maxBatch {
		logx.Info(h.Log, reqID, op, "too many files", "count", len(files))
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	batch := make([]darshan.UploadImage, 0, len(files))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range files {
		mime := fh.Header.Get("Content-Type")
		if !domain.ValidImageMime(mime) {
			logx.Info(h.Log, reqID, op, "rejected mime", "name", fh.Filename, "mime", mime)
			v1.WriteDomainError(w, r, domain.ErrBadParams)
			return
		}
		f, err := fh.Open()
		if err != nil {
			logx.Error(h.Log, reqID, op, "open part failed", err)
			v1.WriteDomainError(w, r, domain.ErrUnexpected)
			return
		}
		opened = append(opened, f)
		batch = append(batch, darshan.UploadImage{Name: fh.Filename, Mime: mime, R: f})
	}

	rec, err := h.Svc.Upload(r.Context(), templeID, at, batch)
	if err != nil {
		logx.Error(h.Log, reqID, op, "upload failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "published", "temple", templeID.String(), "day", rec.Day.String(), "images", len(rec.Images))
	v1.WriteCreatedData(w, r, rec)
}
