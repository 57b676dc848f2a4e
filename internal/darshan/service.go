// Package darshan implements the content lifecycle engine for daily photo
// sets: day-keyed upload, single-image deletion and retrieval, with a
// background retention sweep. All mutations of one (temple, day) key are
// serialized through a keyed lock so uploads, image deletes and sweeps never
// interleave into a half-consistent state.
package darshan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

// putConcurrency caps parallel blob writes per upload batch.
const putConcurrency = 4

// UploadImage is one incoming payload of an upload batch.
type UploadImage struct {
	Name string
	Mime string
	R    io.Reader
}

// DarshanView is the retrieval result. Images is never nil: a day without
// uploads yields an empty list, not an error.
type DarshanView struct {
	Day    domain.DayKey    `json:"date"`
	Images []domain.BlobRef `json:"images"`
}

type Service struct {
	log      *log.Logger
	repo     domain.DarshansRepo
	blobs    domain.BlobStorage
	cache    domain.Cache // optional; nil disables read caching
	loc      *time.Location
	cacheTTL int // seconds
	locks    *keyLock
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock, letting tests pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCache(c domain.Cache, ttlSeconds int) Option {
	return func(s *Service) { s.cache = c; s.cacheTTL = ttlSeconds }
}

func NewService(logger *log.Logger, repo domain.DarshansRepo, blobs domain.BlobStorage, loc *time.Location, opts ...Option) *Service {
	s := &Service{
		log:   logger,
		repo:  repo,
		blobs: blobs,
		loc:   loc,
		locks: newKeyLock(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func lockKey(templeID domain.TempleID, day domain.DayKey) string {
	return templeID.String() + "@" + day.String()
}

// Upload stores a batch of images and creates or replaces the day's record.
// The whole image list is superseded on re-upload: uploading again for the
// same day is how an admin corrects the day's set, not how more photos are
// appended. All-or-nothing: if any blob write fails, the blobs written so far
// are rolled back and no record is touched.
func (s *Service) Upload(ctx context.Context, templeID domain.TempleID, at time.Time, images []UploadImage) (domain.Darshan, error) {
	if len(images) == 0 {
		return domain.Darshan{}, fmt.Errorf("%w: no images uploaded", domain.ErrBadParams)
	}
	day := domain.NormalizeDay(at, s.loc)

	// Blob writes are independent and run concurrently; refs keep input order.
	refs := make([]domain.BlobRef, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(putConcurrency)
	for i, img := range images {
		g.Go(func() error {
			ref, err := s.blobs.Put(gctx, img.R, day, img.Name, img.Mime)
			if err != nil {
				return fmt.Errorf("put %q: %w", img.Name, err)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.deleteBlobs(ctx, refs)
		s.log.Printf("upload temple=%s day=%s aborted: %v", templeID, day, err)
		return domain.Darshan{}, err
	}

	key := lockKey(templeID, day)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// remember the batch being superseded; its blobs become unreferenced
	// the moment the upsert lands and must not be leaked
	var superseded []domain.BlobRef
	if prev, err := s.repo.Find(ctx, templeID, day); err == nil {
		superseded = prev.Images
	}

	rec, err := s.repo.Upsert(ctx, templeID, day, refs)
	if errors.Is(err, domain.ErrConflict) {
		// the keyed lock should prevent this; retry once before giving up
		rec, err = s.repo.Upsert(ctx, templeID, day, refs)
	}
	if err != nil {
		s.deleteBlobs(ctx, refs)
		return domain.Darshan{}, err
	}

	s.deleteBlobs(ctx, superseded)
	s.invalidate(ctx, templeID, day)
	s.log.Printf("upload temple=%s day=%s images=%d", templeID, day, len(refs))
	return rec, nil
}

// deleteBlobs removes a set of refs from storage: rolled-back partial writes,
// superseded batches and unlinked single images. Runs detached from the
// request's cancellation so a record that stopped referencing a blob is not
// left pointing at nothing when the caller gives up mid-flight.
func (s *Service) deleteBlobs(ctx context.Context, refs []domain.BlobRef) {
	cleanCtx := context.WithoutCancel(ctx)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.blobs.Delete(cleanCtx, ref); err != nil {
			s.log.Printf("blob delete %s failed: %v", ref, err)
		}
	}
}

// RemoveImage drops one ref from the day's record and deletes the physical
// blob. Removing a ref that is not in the list is a no-op: the blob is only
// deleted when the record actually held the reference, otherwise a ref owned
// by another record would be destroyed behind its back. When the last image
// goes, the record goes with it.
func (s *Service) RemoveImage(ctx context.Context, templeID domain.TempleID, day domain.DayKey, ref domain.BlobRef) ([]domain.BlobRef, error) {
	key := lockKey(templeID, day)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	remaining, removed, err := s.repo.RemoveImage(ctx, templeID, day, ref)
	if err != nil {
		return nil, err
	}
	if !removed {
		s.log.Printf("remove image temple=%s day=%s ref=%s not referenced, no-op", templeID, day, ref)
		return remaining, nil
	}

	// record no longer references the blob; removing the bytes is on us
	s.deleteBlobs(ctx, []domain.BlobRef{ref})

	s.invalidate(ctx, templeID, day)
	s.log.Printf("remove image temple=%s day=%s ref=%s remaining=%d", templeID, day, ref, len(remaining))
	return remaining, nil
}

// Get resolves "today"/"yesterday" or an explicit "YYYY-MM-DD" date and
// returns the day's images. A day without a record resolves to an empty list:
// clients render "no darshan yet", never an error screen.
func (s *Service) Get(ctx context.Context, templeID domain.TempleID, token string) (DarshanView, error) {
	day, err := domain.ResolveDayToken(token, s.now(), s.loc)
	if err != nil {
		return DarshanView{}, err
	}

	cacheKey := domain.CacheKeyDarshan(templeID, day)
	if s.cache != nil {
		if b, err := s.cache.Get(ctx, cacheKey); err == nil && len(b) > 0 {
			var v DarshanView
			if json.Unmarshal(b, &v) == nil && v.Images != nil {
				return v, nil
			}
		}
	}

	view := DarshanView{Day: day, Images: []domain.BlobRef{}}
	rec, err := s.repo.Find(ctx, templeID, day)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// graceful empty
	case err != nil:
		return DarshanView{}, err
	default:
		view.Images = rec.Images
	}

	if s.cache != nil {
		if b, err := json.Marshal(view); err == nil {
			_ = s.cache.Set(ctx, cacheKey, b, s.cacheTTL)
		}
	}
	return view, nil
}

// purgeDay removes one expired record and its blobs. Called by the sweeper
// with the key lock taken care of here; the record is re-read under the lock
// and compared with what the sweep scanned, so a purge never destroys blobs
// it did not observe. A record replaced by a racing upload is left for the
// next pass. Blob deletion is best-effort; the record is removed from the
// index only after the blob pass.
func (s *Service) purgeDay(ctx context.Context, templeID domain.TempleID, day domain.DayKey, scanned []domain.BlobRef) (bool, error) {
	key := lockKey(templeID, day)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	rec, err := s.repo.Find(ctx, templeID, day)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil // already purged
	}
	if err != nil {
		return false, err
	}
	if !slices.Equal(rec.Images, scanned) {
		s.log.Printf("purge temple=%s day=%s skipped: record changed since scan", templeID, day)
		return false, nil
	}

	for _, ref := range rec.Images {
		if err := s.blobs.Delete(ctx, ref); err != nil {
			s.log.Printf("purge temple=%s day=%s: blob delete %s failed: %v", templeID, day, ref, err)
		}
	}

	if err := s.repo.Delete(ctx, templeID, day); err != nil {
		return false, fmt.Errorf("delete record temple=%s day=%s: %w", templeID, day, err)
	}

	s.invalidate(ctx, templeID, day)
	s.log.Printf("purged temple=%s day=%s images=%d", templeID, day, len(rec.Images))
	return true, nil
}

func (s *Service) invalidate(ctx context.Context, templeID domain.TempleID, day domain.DayKey) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, domain.CacheKeyDarshan(templeID, day)); err != nil {
		s.log.Printf("cache invalidate temple=%s day=%s failed: %v", templeID, day, err)
	}
}
