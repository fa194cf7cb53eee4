package swap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quaylabs/saleswap/internal/domain"
)

func pendingSwap(status domain.SwapStatus) *domain.Swap {
	return &domain.Swap{
		ID:            "swap-1",
		Status:        status,
		From:          tokenAsset,
		To:            saleAsset,
		FromAmount:    "1000",
		ToAmount:      "1000",
		ApproveTxHash: "0xapprove",
		SwapTxHash:    "0xswap",
	}
}

func TestWaitForApproveConfirmationsNotIndexedYet(t *testing.T) {
	client := &fakeClient{
		lookupFn: func(_ context.Context, hash string) (domain.TxLookup, error) {
			return domain.TxLookup{}, fmt.Errorf("tx %s: %w", hash, domain.ErrTxNotFound)
		},
	}
	p := NewPoller(client, nil, &fakeResolver{addr: testOwner}, testLogger())

	upd, err := p.WaitForApproveConfirmations(context.Background(), pendingSwap(domain.StatusWaitingForApproveConfirmations))
	if err != nil || upd != nil {
		t.Fatalf("got (%v, %v), want (nil, nil) while unindexed", upd, err)
	}
}

func TestWaitForApproveConfirmationsZeroConfirmations(t *testing.T) {
	client := &fakeClient{
		lookupFn: func(_ context.Context, hash string) (domain.TxLookup, error) {
			return domain.TxLookup{Hash: hash, Confirmations: 0}, nil
		},
	}
	p := NewPoller(client, nil, &fakeResolver{addr: testOwner}, testLogger())

	upd, err := p.WaitForApproveConfirmations(context.Background(), pendingSwap(domain.StatusWaitingForApproveConfirmations))
	if err != nil || upd != nil {
		t.Fatalf("got (%v, %v), want (nil, nil) while unconfirmed", upd, err)
	}
}

func TestWaitForApproveConfirmationsConfirmed(t *testing.T) {
	client := &fakeClient{
		lookupFn: func(_ context.Context, hash string) (domain.TxLookup, error) {
			return domain.TxLookup{Hash: hash, Confirmations: 1}, nil
		},
	}
	p := NewPoller(client, nil, &fakeResolver{addr: testOwner}, testLogger())

	upd, err := p.WaitForApproveConfirmations(context.Background(), pendingSwap(domain.StatusWaitingForApproveConfirmations))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd == nil || upd.Status != domain.StatusApproveConfirmed {
		t.Fatalf("update = %+v, want status %s", upd, domain.StatusApproveConfirmed)
	}
}

func TestWaitForApproveConfirmationsUnexpectedErrorPropagates(t *testing.T) {
	rpcErr := errors.New("connection reset")
	client := &fakeClient{
		lookupFn: func(context.Context, string) (domain.TxLookup, error) {
			return domain.TxLookup{}, rpcErr
		},
	}
	p := NewPoller(client, nil, &fakeResolver{addr: testOwner}, testLogger())

	_, err := p.WaitForApproveConfirmations(context.Background(), pendingSwap(domain.StatusWaitingForApproveConfirmations))
	if !errors.Is(err, rpcErr) {
		t.Fatalf("error = %v, want propagated RPC error", err)
	}
}

func TestWaitForSwapConfirmationsOutcomes(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name          string
		receiptStatus uint64
		want          domain.SwapStatus
	}{
		{name: "receipt success", receiptStatus: 1, want: domain.StatusSuccess},
		{name: "receipt revert", receiptStatus: 0, want: domain.StatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{
				lookupFn: func(_ context.Context, hash string) (domain.TxLookup, error) {
					return domain.TxLookup{Hash: hash, Confirmations: 3}, nil
				},
				receiptFn: func(context.Context, string) (domain.TxReceipt, error) {
					return domain.TxReceipt{Status: tc.receiptStatus}, nil
				},
			}
			balances := newFakeBalances()
			p := NewPoller(client, balances, &fakeResolver{addr: testOwner}, testLogger()).
				WithClock(func() time.Time { return fixed })

			upd, err := p.WaitForSwapConfirmations(context.Background(), pendingSwap(domain.StatusWaitingForSwapConfirmations))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if upd.Status != tc.want {
				t.Errorf("status = %s, want %s", upd.Status, tc.want)
			}
			if upd.EndTime == nil || !upd.EndTime.Equal(fixed) {
				t.Errorf("end time = %v, want %v", upd.EndTime, fixed)
			}

			select {
			case <-balances.called:
			case <-time.After(2 * time.Second):
				t.Error("balance refresh was never triggered")
			}
		})
	}
}

func TestWaitForSwapConfirmationsReceiptErrorPropagates(t *testing.T) {
	receiptErr := errors.New("receipt unavailable")
	client := &fakeClient{
		lookupFn: func(_ context.Context, hash string) (domain.TxLookup, error) {
			return domain.TxLookup{Hash: hash, Confirmations: 1}, nil
		},
		receiptFn: func(context.Context, string) (domain.TxReceipt, error) {
			return domain.TxReceipt{}, receiptErr
		},
	}
	p := NewPoller(client, nil, &fakeResolver{addr: testOwner}, testLogger())

	_, err := p.WaitForSwapConfirmations(context.Background(), pendingSwap(domain.StatusWaitingForSwapConfirmations))
	if !errors.Is(err, receiptErr) {
		t.Fatalf("error = %v, want wrapped receipt error", err)
	}
}
