package swap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quaylabs/saleswap/internal/domain"
)

// Pair is the one asset pair a provider instance supports.
type Pair struct {
	From domain.Asset
	To   domain.Asset
}

// QuoteEngine prices conversions through the presale contract's fixed-point
// exchange rate. It performs read-only chain calls and has no side effects.
type QuoteEngine struct {
	sale   domain.SaleContract
	pair   Pair
	logger *slog.Logger
}

// NewQuoteEngine creates a QuoteEngine for the supported pair.
func NewQuoteEngine(sale domain.SaleContract, pair Pair, logger *slog.Logger) *QuoteEngine {
	return &QuoteEngine{
		sale:   sale,
		pair:   pair,
		logger: logger.With(slog.String("component", "quote_engine")),
	}
}

// GetQuote returns a quote for converting amount base units of from into to.
// A nil quote with nil error means "no offer": assets on different chains,
// a pair other than the supported one, a non-positive amount, or a closed
// sale. Chain-read failures propagate as errors.
func (q *QuoteEngine) GetQuote(ctx context.Context, network string, from, to domain.Asset, amount decimal.Decimal) (*domain.Quote, error) {
	if !from.SameChain(to) || from.ChainID != network {
		return nil, nil
	}
	if !from.Equal(q.pair.From) || !to.Equal(q.pair.To) {
		return nil, nil
	}
	if amount.Sign() <= 0 {
		return nil, nil
	}

	closed, err := q.sale.IsClosed(ctx)
	if err != nil {
		return nil, fmt.Errorf("swap: read sale status: %w", err)
	}
	if closed {
		q.logger.Debug("sale closed, no quote",
			slog.String("pair", from.Code+"/"+to.Code),
		)
		return nil, nil
	}

	rate, err := q.sale.ExchangeRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("swap: read exchange rate: %w", err)
	}
	ppm, err := q.sale.PPM(ctx)
	if err != nil {
		return nil, fmt.Errorf("swap: read ppm: %w", err)
	}

	// toAmount = fromAmount * exchangeRate / PPM. Multiply before dividing
	// so the division is the only step that can introduce extra digits.
	toAmount := amount.
		Mul(decimal.NewFromBigInt(rate, 0)).
		Div(decimal.NewFromBigInt(ppm, 0))

	return &domain.Quote{
		From:       from,
		To:         to,
		FromAmount: amount.String(),
		ToAmount:   toAmount.String(),
	}, nil
}
