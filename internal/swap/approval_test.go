package swap

import (
	"context"
	"math/big"
	"testing"

	"github.com/quaylabs/saleswap/internal/domain"
)

func newApprovalManager(tokens *fakeTokens, client *fakeClient, locks *fakeLock) *ApprovalManager {
	return NewApprovalManager(tokens, client, locks, &fakeResolver{addr: testOwner}, testSaleAddress, testLogger())
}

func tokenQuote(amount string) domain.Quote {
	return domain.Quote{
		From:       tokenAsset,
		To:         saleAsset,
		FromAmount: amount,
		ToAmount:   amount,
	}
}

func TestRequiresApprovalNativeAsset(t *testing.T) {
	m := newApprovalManager(&fakeTokens{}, &fakeClient{}, &fakeLock{})

	quote := tokenQuote("1000")
	quote.From = nativeAsset

	required, err := m.RequiresApproval(context.Background(), quote, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if required {
		t.Error("native source asset must never require approval")
	}
}

func TestRequiresApprovalBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		allowance int64
		requested string
		want      bool
	}{
		{name: "allowance below request", allowance: 999, requested: "1000", want: true},
		{name: "allowance equal to request", allowance: 1000, requested: "1000", want: false},
		{name: "allowance above request", allowance: 1001, requested: "1000", want: false},
		{name: "zero allowance", allowance: 0, requested: "1", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newApprovalManager(&fakeTokens{allowance: big.NewInt(tc.allowance)}, &fakeClient{}, &fakeLock{})

			required, err := m.RequiresApproval(context.Background(), tokenQuote(tc.requested), testOwner)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if required != tc.want {
				t.Errorf("required = %v, want %v", required, tc.want)
			}
		})
	}
}

func TestApproveTokensSufficientAllowance(t *testing.T) {
	client := &fakeClient{}
	locks := &fakeLock{}
	m := newApprovalManager(&fakeTokens{allowance: big.NewInt(5000)}, client, locks)

	sw := &domain.Swap{
		ID:         "swap-1",
		From:       tokenAsset,
		To:         saleAsset,
		FromAmount: "1000",
		ToAmount:   "1000",
	}

	upd, err := m.ApproveTokens(context.Background(), sw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd == nil || upd.Status != domain.StatusApproveConfirmed {
		t.Fatalf("update = %+v, want status %s", upd, domain.StatusApproveConfirmed)
	}
	if upd.ApproveTx != nil || upd.ApproveTxHash != "" {
		t.Error("no approval transaction must exist when allowance is sufficient")
	}
	if client.sentCount() != 0 {
		t.Errorf("submitted %d transactions, want 0", client.sentCount())
	}
	if len(locks.acquired) != 0 {
		t.Errorf("acquired locks %v, want none", locks.acquired)
	}
}

func TestApproveTokensSubmitsApproval(t *testing.T) {
	client := &fakeClient{
		sendFn: func(_ context.Context, tx domain.TxRequest) (string, error) {
			return "0xapprove", nil
		},
	}
	locks := &fakeLock{}
	m := newApprovalManager(&fakeTokens{allowance: big.NewInt(0)}, client, locks)

	sw := &domain.Swap{
		ID:         "swap-2",
		From:       tokenAsset,
		To:         saleAsset,
		FromAmount: "1000",
		ToAmount:   "1000",
	}

	upd, err := m.ApproveTokens(context.Background(), sw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.Status != domain.StatusWaitingForApproveConfirmations {
		t.Errorf("status = %s, want %s", upd.Status, domain.StatusWaitingForApproveConfirmations)
	}
	if upd.ApproveTxHash != "0xapprove" {
		t.Errorf("hash = %s, want 0xapprove", upd.ApproveTxHash)
	}
	if upd.ApproveTx == nil {
		t.Fatal("approval transaction missing from update")
	}
	if upd.ApproveTx.To != tokenAsset.ContractAddress {
		t.Errorf("approval target = %s, want token contract %s", upd.ApproveTx.To, tokenAsset.ContractAddress)
	}
	if upd.ApproveTx.Value.Sign() != 0 {
		t.Errorf("approval value = %s, want 0", upd.ApproveTx.Value)
	}

	wantKey := "1:USDT"
	if len(locks.acquired) != 1 || locks.acquired[0] != wantKey {
		t.Errorf("acquired locks %v, want [%s]", locks.acquired, wantKey)
	}
	if locks.released != 1 {
		t.Errorf("released = %d, want 1", locks.released)
	}
}
