package chain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistryCachesClientPerChain(t *testing.T) {
	var dials int32
	r := NewRegistry(func(ctx context.Context, chainID string) (*EthClient, error) {
		atomic.AddInt32(&dials, 1)
		return &EthClient{}, nil
	})

	ctx := context.Background()
	first, err := r.Get(ctx, "1")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := r.Get(ctx, "1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if first != second {
		t.Error("same chain id must return the same client handle")
	}
	if n := atomic.LoadInt32(&dials); n != 1 {
		t.Errorf("dials = %d, want 1", n)
	}

	if _, err := r.Get(ctx, "137"); err != nil {
		t.Fatalf("get other chain: %v", err)
	}
	if n := atomic.LoadInt32(&dials); n != 2 {
		t.Errorf("dials after second chain = %d, want 2", n)
	}
}

func TestRegistryConcurrentFirstGetDialsOnce(t *testing.T) {
	var dials int32
	release := make(chan struct{})
	r := NewRegistry(func(ctx context.Context, chainID string) (*EthClient, error) {
		atomic.AddInt32(&dials, 1)
		<-release
		return &EthClient{}, nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := r.Get(ctx, "1"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	close(start)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&dials); n != 1 {
		t.Errorf("dials = %d, want 1 across concurrent first gets", n)
	}
}

func TestRegistryFactoryErrorIsNotCached(t *testing.T) {
	fail := true
	r := NewRegistry(func(ctx context.Context, chainID string) (*EthClient, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return &EthClient{}, nil
	})

	ctx := context.Background()
	_, err := r.Get(ctx, "1")
	if err == nil {
		t.Fatal("expected the factory error")
	}
	if !strings.Contains(err.Error(), "chain: create client for 1") {
		t.Errorf("error %q missing context", err)
	}

	fail = false
	if _, err := r.Get(ctx, "1"); err != nil {
		t.Errorf("get after factory recovery: %v", err)
	}
}
