package domain

import (
	"testing"
	"time"
)

func TestSwapStatusTerminal(t *testing.T) {
	cases := map[SwapStatus]bool{
		StatusWaitingForApproveConfirmations: false,
		StatusApproveConfirmed:               false,
		StatusWaitingForSwapConfirmations:    false,
		StatusSuccess:                        true,
		StatusFailed:                         true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestSwapUpdateApplyMergesOnlySetFields(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sw := Swap{
		ID:            "swap-1",
		Status:        StatusWaitingForSwapConfirmations,
		ApproveTxHash: "0xapprove",
		SwapTxHash:    "0xswap",
	}

	// Empty update leaves everything alone.
	SwapUpdate{}.Apply(&sw)
	if sw.Status != StatusWaitingForSwapConfirmations || sw.ApproveTxHash != "0xapprove" {
		t.Fatalf("empty update mutated the swap: %+v", sw)
	}

	// Partial update only touches what it carries.
	SwapUpdate{Status: StatusSuccess, EndTime: &end}.Apply(&sw)
	if sw.Status != StatusSuccess {
		t.Errorf("status = %s, want %s", sw.Status, StatusSuccess)
	}
	if sw.EndTime == nil || !sw.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", sw.EndTime, end)
	}
	if sw.ApproveTxHash != "0xapprove" || sw.SwapTxHash != "0xswap" {
		t.Error("hashes must survive an update that does not carry them")
	}
}

func TestSwapQuoteRoundTrip(t *testing.T) {
	sw := Swap{
		From:       Asset{Code: "USDT", ChainID: "1", ContractAddress: "0xaa", Decimals: 6},
		To:         Asset{Code: "SALE", ChainID: "1", ContractAddress: "0xbb", Decimals: 18},
		FromAmount: "1000",
		ToAmount:   "2000",
		Fee:        "3",
	}

	q := sw.Quote()
	if q.FromAmount != "1000" || q.ToAmount != "2000" || q.Fee != "3" {
		t.Errorf("quote = %+v, want amounts 1000/2000 fee 3", q)
	}
	if !q.From.Equal(sw.From) || !q.To.Equal(sw.To) {
		t.Error("quote assets must match the swap's assets")
	}
}

func TestAssetHelpers(t *testing.T) {
	token := Asset{Code: "USDT", ChainID: "1", ContractAddress: "0xaa"}
	native := Asset{Code: "ETH", ChainID: "1"}
	other := Asset{Code: "USDT", ChainID: "137", ContractAddress: "0xaa"}

	if !token.IsToken() {
		t.Error("asset with contract address must be a token")
	}
	if native.IsToken() {
		t.Error("asset without contract address must be native")
	}
	if !token.SameChain(native) {
		t.Error("assets on chain 1 must be same-chain")
	}
	if token.SameChain(other) {
		t.Error("chains 1 and 137 must not be same-chain")
	}
	if token.Equal(other) {
		t.Error("same code on different chains must not be equal")
	}
}

func TestMetaForCoversEveryStatus(t *testing.T) {
	statuses := []SwapStatus{
		StatusWaitingForApproveConfirmations,
		StatusApproveConfirmed,
		StatusWaitingForSwapConfirmations,
		StatusSuccess,
		StatusFailed,
	}
	for _, s := range statuses {
		m, ok := MetaFor(s)
		if !ok {
			t.Errorf("no metadata for %s", s)
			continue
		}
		if m.Label == "" || m.Filter == "" {
			t.Errorf("incomplete metadata for %s: %+v", s, m)
		}
	}

	if _, ok := MetaFor(SwapStatus("LIMBO")); ok {
		t.Error("unknown status must have no metadata")
	}

	if m, _ := MetaFor(StatusSuccess); m.Filter != FilterCompleted {
		t.Errorf("SUCCESS filter = %s, want %s", m.Filter, FilterCompleted)
	}
	if m, _ := MetaFor(StatusFailed); m.Filter != FilterFailed {
		t.Errorf("FAILED filter = %s, want %s", m.Filter, FilterFailed)
	}
}
