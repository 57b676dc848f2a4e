// Package local stores image blobs on the local disk, laid out as
// <root>/<day>/<name> and served by the HTTP layer under the public prefix.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/infra/storage/refpath"
)

type Config struct {
	Root         string
	PublicPrefix string
}

type Storage struct {
	root   string
	prefix string
	logger *log.Logger
}

var _ domain.BlobStorage = (*Storage)(nil)

func New(cfg Config, logger *log.Logger) (*Storage, error) {
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}
	return &Storage{root: abs, prefix: cfg.PublicPrefix, logger: logger}, nil
}

// Root returns the directory the static file server should serve.
func (s *Storage) Root() string { return s.root }

// Put writes the payload under the day's directory. The suggested name is
// kept when free; on collision a short suffix is generated instead of
// overwriting. O_EXCL makes the claim atomic under concurrent writers.
func (s *Storage) Put(ctx context.Context, r io.Reader, day domain.DayKey, suggestedName, mime string) (domain.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, day.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := refpath.Sanitize(suggestedName)
	var f *os.File
	for attempt := 0; ; attempt++ {
		var err error
		f, err = os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		if attempt >= 5 {
			return "", fmt.Errorf("cannot claim unique name for %q", suggestedName)
		}
		name = refpath.WithSuffix(refpath.Sanitize(suggestedName), uuid.NewString()[:8])
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	ref := refpath.Ref(s.prefix, day, name)
	s.logger.Printf("put %s (%d bytes, %s)", ref, n, mime)
	return ref, nil
}

// Delete removes the blob file. Missing files are success: the sweeper and
// the manual delete path may race or retry.
func (s *Storage) Delete(ctx context.Context, ref domain.BlobRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := refpath.Key(s.prefix, ref)
	if err != nil {
		return err
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	// best effort: drop the day directory once it is empty
	_ = os.Remove(filepath.Dir(p))
	s.logger.Printf("delete %s", ref)
	return nil
}

func (s *Storage) Ping(context.Context) error {
	_, err := os.Stat(s.root)
	return err
}
