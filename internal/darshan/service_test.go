package darshan

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/infra/storage/memory"
)

var testLoc = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}()

// testNow pins "today" to 2024-01-10 in the reference timezone.
var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, testLoc)

func newTestService(t *testing.T) (*Service, *memRepo, *memory.Storage) {
	t.Helper()
	repo := newMemRepo()
	store := memory.New("/uploads")
	svc := NewService(log.New(io.Discard, "", 0), repo, store, testLoc,
		WithClock(func() time.Time { return testNow }))
	return svc, repo, store
}

func batch(names ...string) []UploadImage {
	out := make([]UploadImage, len(names))
	for i, n := range names {
		out[i] = UploadImage{Name: n, Mime: "image/jpeg", R: strings.NewReader("bytes-of-" + n)}
	}
	return out
}

func TestUploadRoundTripKeepsOrder(t *testing.T) {
	svc, _, store := newTestService(t)

	rec, err := svc.Upload(context.Background(), uuid.New(), testNow, batch("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)
	require.Len(t, rec.Images, 3)
	require.Equal(t, domain.BlobRef("/uploads/2024-01-10/a.jpg"), rec.Images[0])
	require.Equal(t, domain.BlobRef("/uploads/2024-01-10/b.jpg"), rec.Images[1])
	require.Equal(t, domain.BlobRef("/uploads/2024-01-10/c.jpg"), rec.Images[2])

	view, err := svc.Get(context.Background(), rec.TempleID, "2024-01-10")
	require.NoError(t, err)
	require.Equal(t, rec.Images, view.Images)

	for _, ref := range rec.Images {
		require.True(t, store.Exists(ref))
	}
}

func TestUploadNormalizesTimestampToDay(t *testing.T) {
	svc, repo, _ := newTestService(t)
	temple := uuid.New()

	// late evening timestamp still lands on the same calendar day key
	at := time.Date(2024, 1, 10, 23, 55, 0, 0, testLoc)
	rec, err := svc.Upload(context.Background(), temple, at, batch("x.jpg"))
	require.NoError(t, err)
	require.Equal(t, "2024-01-10", rec.Day.String())

	_, err = repo.Find(context.Background(), temple, domain.NormalizeDay(at, testLoc))
	require.NoError(t, err)
}

func TestReUploadReplacesAndFreesOldBlobs(t *testing.T) {
	svc, repo, store := newTestService(t)
	temple := uuid.New()

	first, err := svc.Upload(context.Background(), temple, testNow, batch("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)
	require.Len(t, first.Images, 3)

	second, err := svc.Upload(context.Background(), temple, testNow, batch("d.jpg", "e.jpg"))
	require.NoError(t, err)
	require.Len(t, second.Images, 2, "re-upload replaces, never appends")

	require.Equal(t, 1, repo.Count())
	require.Equal(t, 2, store.Len(), "superseded blobs must be deleted")
	for _, ref := range first.Images {
		require.False(t, store.Exists(ref))
	}
	for _, ref := range second.Images {
		require.True(t, store.Exists(ref))
	}
}

func TestUploadRejectsEmptyBatch(t *testing.T) {
	svc, repo, store := newTestService(t)

	_, err := svc.Upload(context.Background(), uuid.New(), testNow, nil)
	require.True(t, errors.Is(err, domain.ErrBadParams))
	require.Zero(t, repo.Count())
	require.Zero(t, store.Len())
}

func TestUploadRollsBackOnBlobWriteFailure(t *testing.T) {
	svc, repo, store := newTestService(t)
	store.FailPut = "broken.jpg"

	_, err := svc.Upload(context.Background(), uuid.New(), testNow,
		batch("a.jpg", "broken.jpg", "c.jpg"))
	require.Error(t, err)

	require.Zero(t, repo.Count(), "no record on partial failure")
	require.Zero(t, store.Len(), "written blobs are rolled back")
}

func TestRemoveImage(t *testing.T) {
	svc, _, store := newTestService(t)
	temple := uuid.New()
	day := domain.NormalizeDay(testNow, testLoc)

	rec, err := svc.Upload(context.Background(), temple, testNow, batch("a.jpg", "b.jpg"))
	require.NoError(t, err)

	remaining, err := svc.RemoveImage(context.Background(), temple, day, rec.Images[0])
	require.NoError(t, err)
	require.Equal(t, []domain.BlobRef{rec.Images[1]}, remaining)
	require.False(t, store.Exists(rec.Images[0]))
	require.True(t, store.Exists(rec.Images[1]))
}

func TestRemoveImageAbsentRefIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	temple := uuid.New()
	day := domain.NormalizeDay(testNow, testLoc)

	rec, err := svc.Upload(context.Background(), temple, testNow, batch("a.jpg"))
	require.NoError(t, err)

	remaining, err := svc.RemoveImage(context.Background(), temple, day, "/uploads/2024-01-10/ghost.jpg")
	require.NoError(t, err)
	require.Equal(t, rec.Images, remaining)
}

// Refs are day-scoped, so two temples can both hold refs for the same day.
// Removing temple A's ref through temple B's record must leave A's blob
// alone: the blob is only deleted when the addressed record held the ref.
func TestRemoveImageForeignRefKeepsBlob(t *testing.T) {
	svc, _, store := newTestService(t)
	templeA := uuid.New()
	templeB := uuid.New()
	day := domain.NormalizeDay(testNow, testLoc)

	recA, err := svc.Upload(context.Background(), templeA, testNow, batch("a.jpg"))
	require.NoError(t, err)
	recB, err := svc.Upload(context.Background(), templeB, testNow, batch("b.jpg"))
	require.NoError(t, err)

	remaining, err := svc.RemoveImage(context.Background(), templeB, day, recA.Images[0])
	require.NoError(t, err)
	require.Equal(t, recB.Images, remaining, "B's record stays untouched")

	require.True(t, store.Exists(recA.Images[0]), "A's blob must survive the no-op")
	viewA, err := svc.Get(context.Background(), templeA, domain.TokenToday)
	require.NoError(t, err)
	require.Equal(t, recA.Images, viewA.Images)
}

func TestRemoveImageMissingRecordIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RemoveImage(context.Background(), uuid.New(),
		domain.NormalizeDay(testNow, testLoc), "/uploads/2024-01-10/a.jpg")
	require.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRemoveLastImageDeletesRecord(t *testing.T) {
	svc, repo, store := newTestService(t)
	temple := uuid.New()
	day := domain.NormalizeDay(testNow, testLoc)

	rec, err := svc.Upload(context.Background(), temple, testNow, batch("only.jpg"))
	require.NoError(t, err)

	remaining, err := svc.RemoveImage(context.Background(), temple, day, rec.Images[0])
	require.NoError(t, err)
	require.Empty(t, remaining)

	require.Zero(t, repo.Count(), "empty record must be deleted, not persisted")
	require.Zero(t, store.Len())
}

func TestGetGracefulEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, token := range []string{domain.TokenToday, domain.TokenYesterday, "2020-05-01"} {
		view, err := svc.Get(context.Background(), uuid.New(), token)
		require.NoErrorf(t, err, "token %q", token)
		require.NotNil(t, view.Images)
		require.Empty(t, view.Images)
	}
}

func TestGetRejectsMalformedToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New(), "last-tuesday")
	require.True(t, errors.Is(err, domain.ErrBadParams))
}

func TestGetResolvesRelativeTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	temple := uuid.New()

	_, err := svc.Upload(context.Background(), temple, testNow.AddDate(0, 0, -1), batch("y.jpg"))
	require.NoError(t, err)

	today, err := svc.Get(context.Background(), temple, domain.TokenToday)
	require.NoError(t, err)
	require.Empty(t, today.Images)

	yesterday, err := svc.Get(context.Background(), temple, domain.TokenYesterday)
	require.NoError(t, err)
	require.Len(t, yesterday.Images, 1)
	require.Equal(t, "2024-01-09", yesterday.Day.String())
}

// Concurrent uploads to the same (temple, day) must leave exactly one record
// whose blobs are exactly the stored set: one winner, no orphans.
func TestConcurrentUploadsSameKeyInvariant(t *testing.T) {
	svc, repo, store := newTestService(t)
	temple := uuid.New()

	const workers = 16
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Upload(context.Background(), temple, testNow, batch("a.jpg", "b.jpg"))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Equal(t, 1, repo.Count(), "at most one record per (temple, day)")

	rec, err := repo.Find(context.Background(), temple, domain.NormalizeDay(testNow, testLoc))
	require.NoError(t, err)
	require.Len(t, rec.Images, 2)
	require.Equal(t, len(rec.Images), store.Len(), "no orphaned blobs")
	for _, ref := range rec.Images {
		require.True(t, store.Exists(ref))
	}
}
