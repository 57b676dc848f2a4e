package admin

import (
	"log"
	"time"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

type Handler struct {
	Log      *log.Logger
	Admins   domain.AdminsRepo
	Hasher   domain.PasswordHasher
	Tokens   domain.TokenManager
	TokenTTL time.Duration
}
