package darshan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := newKeyLock()

	const workers = 32
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("temple@2024-01-10")
			counter++ // data race without the lock
			kl.Unlock("temple@2024-01-10")
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)
}

func TestKeyLockIndependentKeys(t *testing.T) {
	kl := newKeyLock()
	kl.Lock("a@2024-01-10")

	done := make(chan struct{})
	go func() {
		kl.Lock("b@2024-01-10") // must not block on a's lock
		kl.Unlock("b@2024-01-10")
		close(done)
	}()
	<-done

	kl.Unlock("a@2024-01-10")
}

func TestKeyLockReleasesEntries(t *testing.T) {
	kl := newKeyLock()
	for i := 0; i < 10; i++ {
		kl.Lock("k")
		kl.Unlock("k")
	}
	kl.mu.Lock()
	defer kl.mu.Unlock()
	require.Empty(t, kl.locks, "entries must not accumulate")
}
