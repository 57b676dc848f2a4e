package token

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

func TestIssueParseRoundTrip(t *testing.T) {
	m := New("test-secret", "daily-darshan")
	admin := domain.Admin{ID: uuid.New(), Username: "mandir_admin"}

	tok, claims, err := m.Issue(context.Background(), admin, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, admin.ID, claims.AdminID)

	parsed, err := m.Parse(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, admin.ID, parsed.AdminID)
	require.Equal(t, admin.Username, parsed.Username)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := New("secret-a", "daily-darshan")
	tok, _, err := m.Issue(context.Background(), domain.Admin{ID: uuid.New(), Username: "x"}, time.Hour)
	require.NoError(t, err)

	other := New("secret-b", "daily-darshan")
	_, err = other.Parse(context.Background(), tok)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	m := New("test-secret", "daily-darshan")
	tok, _, err := m.Issue(context.Background(), domain.Admin{ID: uuid.New(), Username: "x"}, -time.Minute)
	require.NoError(t, err)

	_, err = m.Parse(context.Background(), tok)
	require.Error(t, err)
}
