package darshan

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/infra/storage/memory"
)

// sweepFixture pins the clock through a pointer so tests can move time
// forward between upload and sweep.
type sweepFixture struct {
	svc     *Service
	sweeper *Sweeper
	repo    *memRepo
	store   *memory.Storage
	now     *time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	repo := newMemRepo()
	store := memory.New("/uploads")
	now := testNow
	f := &sweepFixture{repo: repo, store: store, now: &now}
	f.svc = NewService(log.New(io.Discard, "", 0), repo, store, testLoc,
		WithClock(func() time.Time { return *f.now }))
	f.sweeper = NewSweeper(log.New(io.Discard, "", 0), f.svc, time.Hour, 48*time.Hour)
	return f
}

// Full lifecycle from the acceptance scenario: upload two images on
// 2024-01-10, delete one, then sweep once the day is out of retention.
func TestSweepLifecycleScenario(t *testing.T) {
	f := newSweepFixture(t)
	temple := uuid.New()
	day := domain.NormalizeDay(testNow, testLoc)

	rec, err := f.svc.Upload(context.Background(), temple, testNow, batch("morning.jpg", "evening.jpg"))
	require.NoError(t, err)
	require.Len(t, rec.Images, 2)

	remaining, err := f.svc.RemoveImage(context.Background(), temple, day, rec.Images[0])
	require.NoError(t, err)
	require.Len(t, remaining, 1)

	// now-48h normalizes to 2024-01-12: the Jan 10 record is expired
	*f.now = time.Date(2024, 1, 14, 12, 0, 0, 0, testLoc)

	purged, err := f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	_, err = f.repo.Find(context.Background(), temple, day)
	require.True(t, errors.Is(err, domain.ErrNotFound))
	require.Zero(t, f.store.Len(), "all blobs purged with the record")
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newSweepFixture(t)
	temple := uuid.New()

	_, err := f.svc.Upload(context.Background(), temple, testNow, batch("a.jpg"))
	require.NoError(t, err)

	*f.now = testNow.AddDate(0, 0, 4)

	purged, err := f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	purged, err = f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, purged, "second pass over a purged set finds nothing")
	require.Zero(t, f.repo.Count())
	require.Zero(t, f.store.Len())
}

func TestSweepKeepsRecordsInsideRetention(t *testing.T) {
	f := newSweepFixture(t)
	temple := uuid.New()

	_, err := f.svc.Upload(context.Background(), temple, testNow, batch("today.jpg"))
	require.NoError(t, err)
	_, err = f.svc.Upload(context.Background(), temple, testNow.AddDate(0, 0, -1), batch("yesterday.jpg"))
	require.NoError(t, err)

	purged, err := f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, purged)
	require.Equal(t, 2, f.repo.Count())
	require.Equal(t, 2, f.store.Len())
}

func TestSweepSingleFlight(t *testing.T) {
	f := newSweepFixture(t)
	temple := uuid.New()

	_, err := f.svc.Upload(context.Background(), temple, testNow, batch("a.jpg"))
	require.NoError(t, err)
	*f.now = testNow.AddDate(0, 0, 4)

	// simulate an in-flight sweep holding the single-flight lock
	f.sweeper.runMu.Lock()
	purged, err := f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, purged, "overlapping tick is skipped, not run in parallel")
	require.Equal(t, 1, f.repo.Count())
	f.sweeper.runMu.Unlock()

	purged, err = f.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, purged)
}

// raceRepo wraps a repo and runs a callback right after the sweep scan
// returns, letting tests interleave work between scan and purge.
type raceRepo struct {
	domain.DarshansRepo
	afterScan func()
}

func (r *raceRepo) FindOlderThan(ctx context.Context, cutoff domain.DayKey) ([]domain.Darshan, error) {
	recs, err := r.DarshansRepo.FindOlderThan(ctx, cutoff)
	if r.afterScan != nil {
		r.afterScan()
	}
	return recs, err
}

// An upload landing between the sweep's scan and its purge replaces the
// record's images. The purge re-reads under the key lock, sees a set it did
// not scan and backs off: the fresh record and its blobs survive until the
// next pass.
func TestSweepLeavesRecordReplacedAfterScan(t *testing.T) {
	repo := newMemRepo()
	store := memory.New("/uploads")
	now := testNow
	raced := &raceRepo{DarshansRepo: repo}
	svc := NewService(log.New(io.Discard, "", 0), raced, store, testLoc,
		WithClock(func() time.Time { return now }))
	sweeper := NewSweeper(log.New(io.Discard, "", 0), svc, time.Hour, 48*time.Hour)

	temple := uuid.New()
	stale, err := svc.Upload(context.Background(), temple, testNow, batch("stale.jpg"))
	require.NoError(t, err)

	now = testNow.AddDate(0, 0, 4)

	var fresh domain.Darshan
	raced.afterScan = func() {
		raced.afterScan = nil
		var err error
		fresh, err = svc.Upload(context.Background(), temple, testNow, batch("fresh.jpg"))
		require.NoError(t, err)
	}

	purged, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, purged, "replaced record is left for the next pass")

	got, err := repo.Find(context.Background(), temple, stale.Day)
	require.NoError(t, err)
	require.Equal(t, fresh.Images, got.Images, "fresh upload's record survives")
	for _, ref := range fresh.Images {
		require.True(t, store.Exists(ref), "fresh upload's blobs survive")
	}
	require.False(t, store.Exists(stale.Images[0]), "superseded blob was freed by the upload")

	purged, err = sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, purged, "next pass purges the still-expired day")
	require.Zero(t, repo.Count())
	require.Zero(t, store.Len())
}

// failDelete wraps the memory store and fails deletion of one ref, standing
// in for a flaky backend during a sweep.
type failDelete struct {
	*memory.Storage
	ref domain.BlobRef
}

func (f *failDelete) Delete(ctx context.Context, ref domain.BlobRef) error {
	if ref == f.ref {
		return errors.New("backend unavailable")
	}
	return f.Storage.Delete(ctx, ref)
}

func TestSweepContinuesPastBlobDeleteFailure(t *testing.T) {
	repo := newMemRepo()
	store := memory.New("/uploads")
	now := testNow
	flaky := &failDelete{Storage: store}
	svc := NewService(log.New(io.Discard, "", 0), repo, flaky, testLoc,
		WithClock(func() time.Time { return now }))
	sweeper := NewSweeper(log.New(io.Discard, "", 0), svc, time.Hour, 48*time.Hour)

	temple := uuid.New()
	rec, err := svc.Upload(context.Background(), temple, testNow, batch("a.jpg", "b.jpg"))
	require.NoError(t, err)
	flaky.ref = rec.Images[0]

	now = testNow.AddDate(0, 0, 4)

	purged, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	// the record is still removed after the blob pass is exhausted
	require.Zero(t, repo.Count())
	require.False(t, store.Exists(rec.Images[1]))
}

func TestSweeperStartStop(t *testing.T) {
	f := newSweepFixture(t)
	temple := uuid.New()

	_, err := f.svc.Upload(context.Background(), temple, testNow, batch("a.jpg"))
	require.NoError(t, err)
	*f.now = testNow.AddDate(0, 0, 4)

	f.sweeper.Start()
	// Start schedules an immediate sweep before the first tick
	require.Eventually(t, func() bool { return f.repo.Count() == 0 },
		time.Second, 10*time.Millisecond)
	f.sweeper.Stop()
}
