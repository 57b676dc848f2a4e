package domain

import (
	"context"
	"time"
)

type Token string

type TokenClaims struct {
	AdminID   AdminID
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Password hashing
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// Token management (JWT, implemented in internal/auth)
type TokenManager interface {
	Issue(ctx context.Context, a Admin, ttl time.Duration) (Token, TokenClaims, error)
	Parse(ctx context.Context, t Token) (TokenClaims, error)
}
