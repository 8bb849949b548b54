package keymutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	km := New()

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("offer-1")
			defer unlock()

			mu.Lock()
			running++
			if running > maxSeen {
				maxSeen = running
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "holders of the same key must not overlap")
}

func TestKeyMutex_IndependentKeys(t *testing.T) {
	km := New()

	unlockA := km.Lock("offer-a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("offer-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
	unlockA()
}

func TestKeyMutex_EntriesAreReleased(t *testing.T) {
	km := New()

	unlock := km.Lock("offer-1")
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries)
}
