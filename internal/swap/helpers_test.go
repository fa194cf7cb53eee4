package swap

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/quaylabs/saleswap/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	tokenAsset = domain.Asset{
		Code:            "USDT",
		ChainID:         "1",
		ContractAddress: "0x00000000000000000000000000000000000000aa",
		Decimals:        6,
	}
	nativeAsset = domain.Asset{
		Code:     "ETH",
		ChainID:  "1",
		Decimals: 18,
	}
	saleAsset = domain.Asset{
		Code:            "SALE",
		ChainID:         "1",
		ContractAddress: "0x00000000000000000000000000000000000000bb",
		Decimals:        18,
	}
)

const (
	testSaleAddress       = "0x00000000000000000000000000000000000000cc"
	testControllerAddress = "0x00000000000000000000000000000000000000dd"
	testOwner             = "0x00000000000000000000000000000000000000ee"
)

type fakeResolver struct {
	addr string
	err  error
}

func (r *fakeResolver) GetUnusedAddresses(context.Context, string, []domain.Asset, string) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []string{r.addr}, nil
}

type fakeLock struct {
	mu       sync.Mutex
	acquired []string
	released int
	err      error
}

func (l *fakeLock) Acquire(_ context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.acquired = append(l.acquired, key)
	l.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.released++
			l.mu.Unlock()
		})
	}, nil
}

type fakeClient struct {
	sendFn    func(ctx context.Context, tx domain.TxRequest) (string, error)
	lookupFn  func(ctx context.Context, hash string) (domain.TxLookup, error)
	receiptFn func(ctx context.Context, hash string) (domain.TxReceipt, error)
	gasFn     func(ctx context.Context, tx domain.TxRequest) (uint64, error)

	mu   sync.Mutex
	sent []domain.TxRequest
}

func (c *fakeClient) SendTransaction(ctx context.Context, tx domain.TxRequest) (string, error) {
	c.mu.Lock()
	c.sent = append(c.sent, tx)
	c.mu.Unlock()
	if c.sendFn == nil {
		return "0xhash", nil
	}
	return c.sendFn(ctx, tx)
}

func (c *fakeClient) TransactionByHash(ctx context.Context, hash string) (domain.TxLookup, error) {
	return c.lookupFn(ctx, hash)
}

func (c *fakeClient) TransactionReceipt(ctx context.Context, hash string) (domain.TxReceipt, error) {
	return c.receiptFn(ctx, hash)
}

func (c *fakeClient) EstimateGas(ctx context.Context, tx domain.TxRequest) (uint64, error) {
	if c.gasFn == nil {
		return 21000, nil
	}
	return c.gasFn(ctx, tx)
}

func (c *fakeClient) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fakeTokens struct {
	allowance *big.Int
	err       error
}

func (t *fakeTokens) Allowance(context.Context, string, string, string) (*big.Int, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.allowance, nil
}

func (t *fakeTokens) EncodeApprove(string, *big.Int) ([]byte, error) {
	return []byte{0x09, 0x5e, 0xa7, 0xb3}, nil
}

type fakeSale struct {
	closed bool
	rate   *big.Int
	ppm    *big.Int
	err    error
}

func (s *fakeSale) IsClosed(context.Context) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.closed, nil
}

func (s *fakeSale) ExchangeRate(context.Context) (*big.Int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rate, nil
}

func (s *fakeSale) PPM(context.Context) (*big.Int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ppm, nil
}

type fakeController struct{}

func (fakeController) EncodeContribute(*big.Int) ([]byte, error) {
	return []byte{0xc1, 0xcb, 0xbc, 0xa7}, nil
}

type fakeBalances struct {
	called chan struct{}
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{called: make(chan struct{}, 1)}
}

func (b *fakeBalances) UpdateBalances(context.Context, string, string, []domain.Asset) error {
	select {
	case b.called <- struct{}{}:
	default:
	}
	return nil
}
