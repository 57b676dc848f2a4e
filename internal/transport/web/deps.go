package web

import "github.com/mandirapp/daily-darshan/internal/domain"

type Repos struct {
	Temples  domain.TemplesRepo
	Darshans domain.DarshansRepo
	Admins   domain.AdminsRepo
}

type AuthDeps struct {
	Hasher domain.PasswordHasher
	Tokens domain.TokenManager
}
