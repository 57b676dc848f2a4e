package darshan

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mandirapp/daily-darshan/internal/darshan"
	"github.com/mandirapp/daily-darshan/internal/domain"
)

// maxBatch caps the number of images accepted per upload.
const maxBatch = 10

type Handler struct {
	Log     *log.Logger
	Svc     *darshan.Service
	Temples domain.TemplesRepo
	Loc     *time.Location // reference timezone for explicit dates
}

func parseTempleID(s string) (domain.TempleID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domain.ErrBadParams
	}
	return id, nil
}
