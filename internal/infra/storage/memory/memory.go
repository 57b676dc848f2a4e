// Package memory is an in-process blob store used by tests. It honours the
// same contract as the disk and S3 stores: unique names under collision,
// idempotent delete, servable refs.
package memory

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/infra/storage/refpath"
)

type Storage struct {
	prefix string

	mu    sync.Mutex
	blobs map[domain.BlobRef][]byte

	// FailPut, when set, makes Put fail for names containing the value.
	// Lets tests exercise the upload rollback path.
	FailPut string
}

var _ domain.BlobStorage = (*Storage)(nil)

func New(publicPrefix string) *Storage {
	return &Storage{prefix: publicPrefix, blobs: make(map[domain.BlobRef][]byte)}
}

func (s *Storage) Put(ctx context.Context, r io.Reader, day domain.DayKey, suggestedName, mime string) (domain.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := refpath.Sanitize(suggestedName)
	if s.FailPut != "" && name == refpath.Sanitize(s.FailPut) {
		return "", &putError{name: name}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ref := refpath.Ref(s.prefix, day, name)
	for attempt := 0; attempt < 5; attempt++ {
		if attempt > 0 {
			ref = refpath.Ref(s.prefix, day, refpath.WithSuffix(name, uuid.NewString()[:8]))
		}
		if _, exists := s.blobs[ref]; !exists {
			s.blobs[ref] = b
			return ref, nil
		}
	}
	// never overwrite an existing blob, same as the disk store
	return "", errors.New("memory storage: could not claim a unique name for " + name)
}

func (s *Storage) Delete(ctx context.Context, ref domain.BlobRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, ref) // missing ref is success
	return nil
}

func (s *Storage) Ping(context.Context) error { return nil }

// Exists reports whether a blob is currently stored.
func (s *Storage) Exists(ref domain.BlobRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[ref]
	return ok
}

// Len returns the number of stored blobs.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

type putError struct{ name string }

func (e *putError) Error() string { return "memory storage: injected put failure for " + e.name }
