// Package swap implements the presale swap orchestration core: quoting, fee
// estimation, the approval and deposit legs, confirmation polling, and the
// state machine that drives one swap step per invocation.
package swap

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quaylabs/saleswap/internal/domain"
)

// TxType names a transaction kind for fee estimation.
type TxType string

// TxTypeSwap is the only transaction type the fee estimator supports.
const TxTypeSwap TxType = "SWAP"

// Provider is the capability set a swap provider exposes to the host
// application. PresaleProvider is the single implementation here; other
// providers would implement the same set.
type Provider interface {
	GetQuote(ctx context.Context, network string, from, to domain.Asset, amount decimal.Decimal) (*domain.Quote, error)
	NewSwap(ctx context.Context, quote domain.Quote, fromAccountID, toAccountID string) (domain.Swap, error)
	EstimateFees(ctx context.Context, accountID string, asset domain.Asset, txType TxType, quote domain.Quote, feePrices []decimal.Decimal) (map[string]decimal.Decimal, error)
	PerformNextAction(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error)
}

// submissionKey is the lock key serializing mutating submissions for one
// asset on one network.
func submissionKey(chainID, assetCode string) string {
	return chainID + ":" + assetCode
}

// ownerAddress resolves the address funds move from for a swap's source
// account.
func ownerAddress(ctx context.Context, resolver domain.AccountResolver, sw *domain.Swap) (string, error) {
	addrs, err := resolver.GetUnusedAddresses(ctx, sw.From.ChainID, []domain.Asset{sw.From}, sw.FromAccountID)
	if err != nil {
		return "", fmt.Errorf("swap: resolve address for account %s: %w", sw.FromAccountID, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("swap: no address for account %s on %s", sw.FromAccountID, sw.From.ChainID)
	}
	return addrs[0], nil
}

// amountUnits parses a base-unit decimal string into an integer amount.
func amountUnits(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("swap: parse amount %q: %w", s, err)
	}
	return d, nil
}
