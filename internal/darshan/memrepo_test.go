package darshan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

// memRepo is an in-memory domain.DarshansRepo for engine tests. The map is
// keyed (temple, day) so the compound uniqueness invariant holds by
// construction; tests assert it through Count.
type memRepo struct {
	mu   sync.Mutex
	recs map[string]domain.Darshan
}

var _ domain.DarshansRepo = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{recs: make(map[string]domain.Darshan)}
}

func (m *memRepo) key(templeID domain.TempleID, day domain.DayKey) string {
	return templeID.String() + "@" + day.String()
}

func (m *memRepo) Upsert(_ context.Context, templeID domain.TempleID, day domain.DayKey, images []domain.BlobRef) (domain.Darshan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	rec, ok := m.recs[m.key(templeID, day)]
	if !ok {
		rec = domain.Darshan{ID: uuid.New(), TempleID: templeID, Day: day, CreatedAt: now}
	}
	rec.Images = append([]domain.BlobRef(nil), images...)
	rec.UpdatedAt = now
	m.recs[m.key(templeID, day)] = rec
	return rec, nil
}

func (m *memRepo) Find(_ context.Context, templeID domain.TempleID, day domain.DayKey) (domain.Darshan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[m.key(templeID, day)]
	if !ok {
		return domain.Darshan{}, domain.ErrNotFound
	}
	return rec, nil
}

func (m *memRepo) RemoveImage(_ context.Context, templeID domain.TempleID, day domain.DayKey, ref domain.BlobRef) ([]domain.BlobRef, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[m.key(templeID, day)]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	var remaining []domain.BlobRef
	for _, img := range rec.Images {
		if img != ref {
			remaining = append(remaining, img)
		}
	}
	if len(remaining) == len(rec.Images) {
		return append([]domain.BlobRef(nil), rec.Images...), false, nil
	}
	if len(remaining) == 0 {
		delete(m.recs, m.key(templeID, day))
		return []domain.BlobRef{}, true, nil
	}
	rec.Images = remaining
	rec.UpdatedAt = time.Now()
	m.recs[m.key(templeID, day)] = rec
	return remaining, true, nil
}

func (m *memRepo) FindOlderThan(_ context.Context, cutoff domain.DayKey) ([]domain.Darshan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Darshan
	for _, rec := range m.recs {
		if rec.Day.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, templeID domain.TempleID, day domain.DayKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, m.key(templeID, day))
	return nil
}

// Count returns the number of stored records.
func (m *memRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}
