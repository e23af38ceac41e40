package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_MutualExclusion(t *testing.T) {
	locks := New()

	const workers = 32

	var (
		wg      sync.WaitGroup
		counter int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := locks.Lock("doc-1")
			defer unlock()

			counter++
		}()
	}

	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locks := New()

	unlockA := locks.Lock("doc-a")

	// A different key must not block.
	acquired := make(chan struct{})

	go func() {
		unlockB := locks.Lock("doc-b")
		defer unlockB()

		close(acquired)
	}()

	<-acquired
	unlockA()
}

func TestKeyedMutex_Reacquire(t *testing.T) {
	locks := New()

	unlock := locks.Lock("doc-1")
	unlock()

	// The entry was released; locking again must not deadlock.
	unlock = locks.Lock("doc-1")
	unlock()
}
