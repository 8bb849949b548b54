// Package keymutex serializes operations sharing a string key. The offer
// service locks on the offer id so that concurrent term edits, confirmations
// and lifecycle transitions on the same offer are applied one at a time,
// while operations on different offers stay fully independent.
package keymutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex is a set of reference-counted mutexes addressed by key. Entries
// are removed once the last holder unlocks, so the map stays bounded by the
// number of in-flight keys.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyMutex) Lock(key string) func() {
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
