package refpath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"om.jpg":                "om.jpg",
		"morning darshan.png":   "morning_darshan.png",
		"../../etc/passwd":      "passwd",
		"..\\..\\win\\face.jpg": "face.jpg",
		"":                      "image",
		"...":                   "image",
		"ॐ.jpg":                 "_.jpg",
	}
	for in, want := range cases {
		require.Equalf(t, want, Sanitize(in), "input %q", in)
	}
}

func TestWithSuffix(t *testing.T) {
	require.Equal(t, "om-a1b2.jpg", WithSuffix("om.jpg", "a1b2"))
	require.Equal(t, "noext-a1b2", WithSuffix("noext", "a1b2"))
}

func TestRefKeyRoundTrip(t *testing.T) {
	day := domain.NormalizeDay(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), time.UTC)
	ref := Ref("/uploads", day, "om.jpg")
	require.Equal(t, domain.BlobRef("/uploads/2024-01-10/om.jpg"), ref)

	key, err := Key("/uploads", ref)
	require.NoError(t, err)
	require.Equal(t, "2024-01-10/om.jpg", key)
}

func TestKeyRejectsBadRefs(t *testing.T) {
	for _, bad := range []domain.BlobRef{
		"/elsewhere/2024-01-10/om.jpg",
		"/uploads/../secrets",
		"/uploads/",
		"/uploads/2024-01-10/../../x",
	} {
		_, err := Key("/uploads", bad)
		require.Errorf(t, err, "ref %q", bad)
	}
}
