package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

func testDay(t *testing.T) domain.DayKey {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return domain.NormalizeDay(time.Date(2024, 1, 10, 12, 0, 0, 0, loc), loc)
}

func TestPutNeverOverwrites(t *testing.T) {
	s := New("/uploads")
	day := testDay(t)

	first, err := s.Put(context.Background(), strings.NewReader("one"), day, "om.jpg", "image/jpeg")
	require.NoError(t, err)

	second, err := s.Put(context.Background(), strings.NewReader("two"), day, "om.jpg", "image/jpeg")
	require.NoError(t, err)

	require.NotEqual(t, first, second, "colliding name gets a fresh ref, not an overwrite")
	require.True(t, s.Exists(first))
	require.True(t, s.Exists(second))
	require.Equal(t, 2, s.Len())
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New("/uploads")
	day := testDay(t)

	ref, err := s.Put(context.Background(), strings.NewReader("one"), day, "om.jpg", "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), ref))
	require.False(t, s.Exists(ref))
	require.NoError(t, s.Delete(context.Background(), ref), "missing ref is success")
}
