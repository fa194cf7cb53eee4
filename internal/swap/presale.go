package swap

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quaylabs/saleswap/internal/domain"
)

// PresaleProvider is the provider implementation for the presale pair. It
// composes the quote engine, fee estimator, approval manager, and state
// machine; it holds no mutable state of its own beyond configuration.
type PresaleProvider struct {
	quotes    *QuoteEngine
	fees      *FeeEstimator
	approvals *ApprovalManager
	machine   *Machine
	logger    *slog.Logger
}

// NewPresaleProvider assembles a provider from its components.
func NewPresaleProvider(
	quotes *QuoteEngine,
	fees *FeeEstimator,
	approvals *ApprovalManager,
	machine *Machine,
	logger *slog.Logger,
) *PresaleProvider {
	return &PresaleProvider{
		quotes:    quotes,
		fees:      fees,
		approvals: approvals,
		machine:   machine,
		logger:    logger.With(slog.String("component", "presale_provider")),
	}
}

// GetQuote prices a conversion. See QuoteEngine.GetQuote.
func (p *PresaleProvider) GetQuote(ctx context.Context, network string, from, to domain.Asset, amount decimal.Decimal) (*domain.Quote, error) {
	return p.quotes.GetQuote(ctx, network, from, to, amount)
}

// NewSwap opens a swap from a quote: it creates the record, runs the
// approval leg, and merges the result. The caller persists the returned
// record; every later mutation flows through PerformNextAction updates.
func (p *PresaleProvider) NewSwap(ctx context.Context, quote domain.Quote, fromAccountID, toAccountID string) (domain.Swap, error) {
	now := time.Now().UTC()
	sw := domain.Swap{
		ID:            uuid.New().String(),
		From:          quote.From,
		To:            quote.To,
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		FromAmount:    quote.FromAmount,
		ToAmount:      quote.ToAmount,
		Fee:           quote.Fee,
		SlippageBps:   domain.DefaultSlippageBps,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	upd, err := p.approvals.ApproveTokens(ctx, &sw)
	if err != nil {
		return domain.Swap{}, err
	}
	upd.Apply(&sw)

	p.logger.Info("swap created",
		slog.String("swap_id", sw.ID),
		slog.String("status", string(sw.Status)),
		slog.String("from", sw.From.Code),
		slog.String("to", sw.To.Code),
		slog.String("from_amount", sw.FromAmount),
	)
	return sw, nil
}

// EstimateFees computes per-tier fees. See FeeEstimator.EstimateFees.
func (p *PresaleProvider) EstimateFees(
	ctx context.Context,
	accountID string,
	asset domain.Asset,
	txType TxType,
	quote domain.Quote,
	feePrices []decimal.Decimal,
) (map[string]decimal.Decimal, error) {
	return p.fees.EstimateFees(ctx, accountID, asset, txType, quote, feePrices)
}

// PerformNextAction advances the swap by one step. See
// Machine.PerformNextAction.
func (p *PresaleProvider) PerformNextAction(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error) {
	return p.machine.PerformNextAction(ctx, sw)
}

var _ Provider = (*PresaleProvider)(nil)
