package swap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quaylabs/saleswap/internal/domain"
)

// balanceRefreshTimeout bounds the fire-and-forget balance refresh after a
// terminal state.
const balanceRefreshTimeout = 30 * time.Second

// Poller checks pending transactions for confirmations. A hash the chain has
// not indexed yet and a transaction with zero confirmations both produce no
// update; the caller retries on its own cadence. Any other chain-client
// error propagates untouched.
type Poller struct {
	client   domain.ChainClient
	balances domain.BalanceRefresher
	resolver domain.AccountResolver
	now      func() time.Time
	logger   *slog.Logger
}

// NewPoller creates a Poller. balances may be nil when no refresh side
// effect is wanted (tests).
func NewPoller(
	client domain.ChainClient,
	balances domain.BalanceRefresher,
	resolver domain.AccountResolver,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		client:   client,
		balances: balances,
		resolver: resolver,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With(slog.String("component", "confirmation_poller")),
	}
}

// WithClock overrides the poller's time source. Tests use this to pin
// EndTime values.
func (p *Poller) WithClock(now func() time.Time) *Poller {
	p.now = now
	return p
}

// WaitForApproveConfirmations polls the approval transaction. One
// confirmation is enough to advance to APPROVE_CONFIRMED.
func (p *Poller) WaitForApproveConfirmations(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error) {
	lookup, err := p.lookup(ctx, sw, sw.ApproveTxHash)
	if err != nil || lookup == nil {
		return nil, err
	}
	if lookup.Confirmations == 0 {
		return nil, nil
	}

	return &domain.SwapUpdate{Status: domain.StatusApproveConfirmed}, nil
}

// WaitForSwapConfirmations polls the deposit transaction and, once it has a
// confirmation, inspects the receipt: status 1 terminates the swap in
// SUCCESS, anything else in FAILED. Either way EndTime is stamped and a
// balance refresh for the source asset is kicked off.
func (p *Poller) WaitForSwapConfirmations(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error) {
	lookup, err := p.lookup(ctx, sw, sw.SwapTxHash)
	if err != nil || lookup == nil {
		return nil, err
	}
	if lookup.Confirmations == 0 {
		return nil, nil
	}

	receipt, err := p.client.TransactionReceipt(ctx, sw.SwapTxHash)
	if err != nil {
		return nil, fmt.Errorf("swap: fetch receipt: %w", err)
	}

	status := domain.StatusFailed
	if receipt.Status == domain.ReceiptStatusSuccess {
		status = domain.StatusSuccess
	}

	endTime := p.now()
	p.refreshBalances(sw)

	return &domain.SwapUpdate{Status: status, EndTime: &endTime}, nil
}

// lookup fetches a transaction by hash. A nil result with nil error means
// the transaction is not observable yet.
func (p *Poller) lookup(ctx context.Context, sw *domain.Swap, hash string) (*domain.TxLookup, error) {
	found, err := p.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrTxNotFound) {
			p.logger.Debug("transaction not observed yet",
				slog.String("swap_id", sw.ID),
				slog.String("tx_hash", hash),
			)
			return nil, nil
		}
		return nil, err
	}
	return &found, nil
}

// refreshBalances triggers the balance-refresh side effect for the source
// asset. It is fire-and-forget: correctness never depends on it and the
// caller's context does not bound it.
func (p *Poller) refreshBalances(sw *domain.Swap) {
	if p.balances == nil {
		return
	}

	swapCopy := *sw
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), balanceRefreshTimeout)
		defer cancel()

		owner, err := ownerAddress(ctx, p.resolver, &swapCopy)
		if err != nil {
			p.logger.Warn("balance refresh skipped",
				slog.String("swap_id", swapCopy.ID),
				slog.String("error", err.Error()),
			)
			return
		}

		if err := p.balances.UpdateBalances(ctx, swapCopy.From.ChainID, owner, []domain.Asset{swapCopy.From}); err != nil {
			p.logger.Warn("balance refresh failed",
				slog.String("swap_id", swapCopy.ID),
				slog.String("error", err.Error()),
			)
		}
	}()
}
