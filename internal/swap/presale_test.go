package swap

import (
	"context"
	"math/big"
	"testing"

	"github.com/quaylabs/saleswap/internal/domain"
)

func newPresaleProvider(tokens *fakeTokens, client *fakeClient) *PresaleProvider {
	resolver := &fakeResolver{addr: testOwner}
	locks := &fakeLock{}
	logger := testLogger()

	quotes := NewQuoteEngine(&fakeSale{rate: big.NewInt(1), ppm: big.NewInt(1)}, Pair{From: tokenAsset, To: saleAsset}, logger)
	approvals := NewApprovalManager(tokens, client, locks, resolver, testSaleAddress, logger)
	executor := NewExecutor(fakeController{}, client, locks, resolver, testControllerAddress, logger)
	poller := NewPoller(client, nil, resolver, logger)
	fees := NewFeeEstimator(approvals, client, resolver, logger)
	machine := NewMachine(executor, poller, logger)
	return NewPresaleProvider(quotes, fees, approvals, machine, logger)
}

func TestNewSwapSkipsApprovalLeg(t *testing.T) {
	client := &fakeClient{}
	p := newPresaleProvider(&fakeTokens{allowance: big.NewInt(5000)}, client)

	sw, err := p.NewSwap(context.Background(), tokenQuote("1000"), "acct-from", "acct-to")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sw.ID == "" {
		t.Error("swap id must be assigned")
	}
	if sw.Status != domain.StatusApproveConfirmed {
		t.Errorf("status = %s, want %s (approval leg skipped)", sw.Status, domain.StatusApproveConfirmed)
	}
	if client.sentCount() != 0 {
		t.Errorf("submitted %d transactions, want 0", client.sentCount())
	}
	if sw.SlippageBps != domain.DefaultSlippageBps {
		t.Errorf("slippage = %d bps, want %d", sw.SlippageBps, domain.DefaultSlippageBps)
	}
	if sw.CreatedAt.IsZero() || sw.UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}
}

func TestNewSwapRunsApprovalLeg(t *testing.T) {
	client := &fakeClient{
		sendFn: func(context.Context, domain.TxRequest) (string, error) {
			return "0xapprove", nil
		},
	}
	p := newPresaleProvider(&fakeTokens{allowance: big.NewInt(0)}, client)

	sw, err := p.NewSwap(context.Background(), tokenQuote("1000"), "acct-from", "acct-to")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sw.Status != domain.StatusWaitingForApproveConfirmations {
		t.Errorf("status = %s, want %s", sw.Status, domain.StatusWaitingForApproveConfirmations)
	}
	if sw.ApproveTxHash != "0xapprove" {
		t.Errorf("approve hash = %s, want 0xapprove", sw.ApproveTxHash)
	}
	if sw.ApproveTx == nil {
		t.Error("approval transaction must be recorded on the swap")
	}
}

func TestSlippageIsDisplayMetadataOnly(t *testing.T) {
	// The deposit calldata and value depend only on the quoted amount; the
	// recorded slippage never changes what is submitted.
	client := &fakeClient{}
	resolver := &fakeResolver{addr: testOwner}
	executor := NewExecutor(fakeController{}, client, &fakeLock{}, resolver, testControllerAddress, testLogger())

	base := pendingSwap(domain.StatusApproveConfirmed)
	base.SlippageBps = domain.DefaultSlippageBps
	loose := *base
	loose.SlippageBps = 500

	txA, err := executor.BuildSwapTx(base, testOwner)
	if err != nil {
		t.Fatalf("build base: %v", err)
	}
	txB, err := executor.BuildSwapTx(&loose, testOwner)
	if err != nil {
		t.Fatalf("build loose: %v", err)
	}

	if string(txA.Data) != string(txB.Data) || txA.Value.Cmp(txB.Value) != 0 {
		t.Error("slippage must not influence the deposit transaction")
	}
}
