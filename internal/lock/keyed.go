// Package lock provides the in-process keyed mutex used to serialize
// transaction submission per (network, asset).
package lock

import (
	"context"
	"sync"

	"github.com/quaylabs/saleswap/internal/domain"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Keyed is a set of independent mutexes addressed by string key. Acquire
// blocks until the key's mutex is free or the context is done. Keys with no
// holder and no waiter are removed, so the map does not grow with the set of
// keys ever seen.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewKeyed creates an empty keyed mutex set.
func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Acquire blocks until it holds the mutex for key. The returned unlock must
// be called on every exit path; calling it more than once is a no-op.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			<-e.sem
			k.release(key, e)
		})
	}
	return unlock, nil
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}

var _ domain.LockManager = (*Keyed)(nil)
