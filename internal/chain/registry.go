package chain

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Factory dials a client for a chain id.
type Factory func(ctx context.Context, chainID string) (*EthClient, error)

// Registry lazily creates and caches one client handle per chain id. Entries
// are inserted once and never replaced or invalidated: picking up a changed
// RPC endpoint requires a process restart. That staleness is a deliberate
// trade-off, not an oversight.
type Registry struct {
	factory Factory

	mu      sync.RWMutex
	clients map[string]*EthClient
	group   singleflight.Group
}

// NewRegistry creates a Registry that dials through factory on first use of
// each chain id.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		clients: make(map[string]*EthClient),
	}
}

// Get returns the cached client for chainID, dialing it on first use.
// Concurrent first lookups of the same chain collapse into a single dial.
func (r *Registry) Get(ctx context.Context, chainID string) (*EthClient, error) {
	r.mu.RLock()
	c, ok := r.clients[chainID]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := r.group.Do(chainID, func() (any, error) {
		r.mu.RLock()
		c, ok := r.clients[chainID]
		r.mu.RUnlock()
		if ok {
			return c, nil
		}

		c, err := r.factory(ctx, chainID)
		if err != nil {
			return nil, fmt.Errorf("chain: create client for %s: %w", chainID, err)
		}

		r.mu.Lock()
		r.clients[chainID] = c
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EthClient), nil
}
