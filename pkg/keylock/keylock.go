// Package keylock provides per-key mutual exclusion. The routing engine
// uses it as the per-document mutation scope: no two concurrent calls
// may advance the same document's route.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex hands out one mutex per key. Entries are released once no
// caller holds or waits on them, so the map does not grow with the
// number of documents ever routed.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for the key and returns the unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}

	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()

		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}

		k.mu.Unlock()
	}
}
