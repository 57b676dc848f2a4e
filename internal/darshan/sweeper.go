package darshan

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

// Sweeper purges darshan records whose day fell out of the retention window,
// together with their blobs. It is owned by the process lifecycle via
// Start/Stop; RunOnce is exposed so tests can drive a sweep synchronously.
type Sweeper struct {
	log       *log.Logger
	svc       *Service
	interval  time.Duration
	retention time.Duration

	runMu  sync.Mutex // single-flight: overlapping ticks are skipped
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(logger *log.Logger, svc *Service, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		log:       logger,
		svc:       svc,
		interval:  interval,
		retention: retention,
	}
}

// Start launches the periodic sweep. One sweep runs immediately so expired
// content does not survive a restart until the first tick.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.tick(ctx)

		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.tick(ctx)
			}
		}
	}()
	s.log.Printf("started (interval=%s retention=%s)", s.interval, s.retention)
}

// Stop cancels the timer loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Println("stopped")
}

func (s *Sweeper) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Printf("sweep finished with errors: %v", err)
	}
}

// RunOnce executes one full sweep: find everything older than the retention
// cutoff and purge it record by record. Naturally idempotent: a second run
// over an already-purged set finds nothing, and records that changed between
// scan and purge are left for the next pass. Returns the number of purged
// records; per-record failures are joined, never abort the pass.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if !s.runMu.TryLock() {
		s.log.Println("sweep already running, skipping tick")
		return 0, nil
	}
	defer s.runMu.Unlock()

	cutoff := domain.NormalizeDay(s.svc.now().Add(-s.retention), s.svc.loc)
	s.log.Printf("sweep start cutoff=%s", cutoff)

	expired, err := s.svc.repo.FindOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var (
		purged int
		errs   []error
	)
	for _, rec := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := s.svc.purgeDay(ctx, rec.TempleID, rec.Day, rec.Images)
		if err != nil {
			s.log.Printf("sweep: purge temple=%s day=%s failed: %v", rec.TempleID, rec.Day, err)
			errs = append(errs, err)
			continue
		}
		if ok {
			purged++
		}
	}

	s.log.Printf("sweep done scanned=%d purged=%d failed=%d", len(expired), purged, len(errs))
	return purged, errors.Join(errs...)
}
