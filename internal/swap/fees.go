package swap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quaylabs/saleswap/internal/domain"
)

// SwapGasBudget is the fixed gas allowance for the deposit transaction. Gas
// simulation against the controller is unreliable on this chain, so the
// budget is a ceiling real usage stays under rather than an estimate.
const SwapGasBudget = 750_000

// gweiShift converts a gwei-denominated fee into native display units
// (shift by -9 decimal digits).
const gweiShift = -9

// gasSafetyMultiplier is the uniform buffer applied to the gas budget.
var gasSafetyMultiplier = decimal.RequireFromString("1.1")

// FeeEstimator computes the native-asset fee of a swap across candidate
// gas-price tiers.
type FeeEstimator struct {
	approvals *ApprovalManager
	client    domain.ChainClient
	resolver  domain.AccountResolver
	logger    *slog.Logger
}

// NewFeeEstimator creates a FeeEstimator.
func NewFeeEstimator(
	approvals *ApprovalManager,
	client domain.ChainClient,
	resolver domain.AccountResolver,
	logger *slog.Logger,
) *FeeEstimator {
	return &FeeEstimator{
		approvals: approvals,
		client:    client,
		resolver:  resolver,
		logger:    logger.With(slog.String("component", "fee_estimator")),
	}
}

// EstimateFees returns the fee per candidate gas price, keyed by the tier's
// decimal string. Prices are denominated in gwei; fees come back in the
// native asset's display unit. The gas budget is the fixed swap budget plus
// the estimated approval gas when the quote needs an allowance. Any txType
// other than TxTypeSwap is a programmer error and fails immediately.
func (f *FeeEstimator) EstimateFees(
	ctx context.Context,
	accountID string,
	asset domain.Asset,
	txType TxType,
	quote domain.Quote,
	feePrices []decimal.Decimal,
) (map[string]decimal.Decimal, error) {
	if txType != TxTypeSwap {
		return nil, fmt.Errorf("swap: tx type %q: %w", txType, domain.ErrUnsupportedTxType)
	}

	gas := decimal.NewFromInt(SwapGasBudget)

	sw := domain.Swap{From: quote.From, FromAccountID: accountID}
	owner, err := ownerAddress(ctx, f.resolver, &sw)
	if err != nil {
		return nil, err
	}

	required, err := f.approvals.RequiresApproval(ctx, quote, owner)
	if err != nil {
		return nil, err
	}
	if required {
		tx, err := f.approvals.BuildApprovalTx(quote, owner)
		if err != nil {
			return nil, err
		}
		approvalGas, err := f.client.EstimateGas(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("swap: estimate approval gas: %w", err)
		}
		gas = gas.Add(decimal.NewFromUint64(approvalGas))
	}

	buffered := gas.Mul(gasSafetyMultiplier)

	fees := make(map[string]decimal.Decimal, len(feePrices))
	for _, price := range feePrices {
		fees[price.String()] = buffered.Mul(price).Shift(gweiShift)
	}
	return fees, nil
}
