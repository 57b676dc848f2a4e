package token

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

type Manager struct {
	secret []byte
	issuer string
}

func New(secret, issuer string) *Manager {
	return &Manager{secret: []byte(secret), issuer: issuer}
}

// internal claims type for signing/parsing with jwt.RegisteredClaims
type jwtClaims struct {
	AdminID  uuid.UUID `json:"aid"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

// Ensure: Manager implements domain.TokenManager
var _ domain.TokenManager = (*Manager)(nil)

// Issue signs a JWT for an admin and returns the domain claims.
func (m *Manager) Issue(_ context.Context, a domain.Admin, ttl time.Duration) (domain.Token, domain.TokenClaims, error) {
	now := time.Now().UTC()

	cl := jwtClaims{
		AdminID:  a.ID,
		Username: a.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   a.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	tokenStr, err := t.SignedString(m.secret)
	if err != nil {
		return "", domain.TokenClaims{}, err
	}

	return domain.Token(tokenStr), domain.TokenClaims{
		AdminID:   cl.AdminID,
		Username:  cl.Username,
		IssuedAt:  cl.IssuedAt.Time,
		ExpiresAt: cl.ExpiresAt.Time,
	}, nil
}

// Parse validates signature and expiry and returns the domain claims.
func (m *Manager) Parse(_ context.Context, raw domain.Token) (domain.TokenClaims, error) {
	var out jwtClaims
	tkn, err := jwt.ParseWithClaims(string(raw), &out, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.TokenClaims{}, err
	}
	if !tkn.Valid {
		return domain.TokenClaims{}, jwt.ErrTokenInvalidClaims
	}

	return domain.TokenClaims{
		AdminID:   out.AdminID,
		Username:  out.Username,
		IssuedAt:  out.IssuedAt.Time,
		ExpiresAt: out.ExpiresAt.Time,
	}, nil
}
