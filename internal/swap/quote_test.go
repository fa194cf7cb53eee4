package swap

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func newQuoteEngine(sale *fakeSale) *QuoteEngine {
	return NewQuoteEngine(sale, Pair{From: tokenAsset, To: saleAsset}, testLogger())
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestGetQuoteNoOffer(t *testing.T) {
	sale := &fakeSale{rate: big.NewInt(1), ppm: big.NewInt(1)}
	q := newQuoteEngine(sale)
	ctx := context.Background()

	otherChain := tokenAsset
	otherChain.ChainID = "137"

	// Cross-chain: destination on another chain.
	got, err := q.GetQuote(ctx, "1", tokenAsset, otherChain, dec(t, "100"))
	if err != nil || got != nil {
		t.Fatalf("cross-chain pair: got (%v, %v), want (nil, nil)", got, err)
	}

	// Network other than the pair's chain.
	got, err = q.GetQuote(ctx, "137", tokenAsset, saleAsset, dec(t, "100"))
	if err != nil || got != nil {
		t.Fatalf("wrong network: got (%v, %v), want (nil, nil)", got, err)
	}

	// Unsupported pair.
	got, err = q.GetQuote(ctx, "1", nativeAsset, saleAsset, dec(t, "100"))
	if err != nil || got != nil {
		t.Fatalf("unsupported pair: got (%v, %v), want (nil, nil)", got, err)
	}

	// Non-positive amounts.
	for _, amount := range []string{"0", "-5"} {
		got, err = q.GetQuote(ctx, "1", tokenAsset, saleAsset, dec(t, amount))
		if err != nil || got != nil {
			t.Fatalf("amount %s: got (%v, %v), want (nil, nil)", amount, got, err)
		}
	}
}

func TestGetQuoteClosedSale(t *testing.T) {
	sale := &fakeSale{closed: true, rate: big.NewInt(1), ppm: big.NewInt(1)}
	q := newQuoteEngine(sale)

	got, err := q.GetQuote(context.Background(), "1", tokenAsset, saleAsset, dec(t, "100"))
	if err != nil || got != nil {
		t.Fatalf("closed sale: got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestGetQuoteReadErrorPropagates(t *testing.T) {
	readErr := errors.New("rpc down")
	q := newQuoteEngine(&fakeSale{err: readErr})

	_, err := q.GetQuote(context.Background(), "1", tokenAsset, saleAsset, dec(t, "100"))
	if !errors.Is(err, readErr) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestGetQuoteExchangeRateMath(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		rate   int64
		ppm    int64
		want   string
	}{
		{name: "half", amount: "1000000", rate: 500000, ppm: 1000000, want: "500000"},
		{name: "small amount at half rate", amount: "100", rate: 500000, ppm: 1000000, want: "50"},
		{name: "identity", amount: "123456", rate: 1000000, ppm: 1000000, want: "123456"},
		{name: "rate above one", amount: "100", rate: 150, ppm: 100, want: "150"},
		{name: "large amounts stay exact", amount: "1000000000000000000", rate: 333333, ppm: 1000000, want: "333333000000000000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sale := &fakeSale{rate: big.NewInt(tc.rate), ppm: big.NewInt(tc.ppm)}
			q := newQuoteEngine(sale)

			got, err := q.GetQuote(context.Background(), "1", tokenAsset, saleAsset, dec(t, tc.amount))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("expected a quote, got nil")
			}
			if got.ToAmount != tc.want {
				t.Errorf("to amount = %s, want %s", got.ToAmount, tc.want)
			}
			if got.FromAmount != tc.amount {
				t.Errorf("from amount = %s, want %s", got.FromAmount, tc.amount)
			}
		})
	}
}
