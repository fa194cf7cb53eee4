package domain

import "time"

// SwapStatus tracks the swap lifecycle. Transitions are strictly forward
// along the path
//
//	WAITING_FOR_APPROVE_CONFIRMATIONS -> APPROVE_CONFIRMED ->
//	WAITING_FOR_SWAP_CONFIRMATIONS -> SUCCESS | FAILED
//
// and the approval leg is skipped entirely when the source asset needs no
// allowance.
type SwapStatus string

const (
	StatusWaitingForApproveConfirmations SwapStatus = "WAITING_FOR_APPROVE_CONFIRMATIONS"
	StatusApproveConfirmed               SwapStatus = "APPROVE_CONFIRMED"
	StatusWaitingForSwapConfirmations    SwapStatus = "WAITING_FOR_SWAP_CONFIRMATIONS"
	StatusSuccess                        SwapStatus = "SUCCESS"
	StatusFailed                         SwapStatus = "FAILED"
)

// Terminal reports whether the status is an end state.
func (s SwapStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// DefaultSlippageBps is recorded on every new swap. It is display metadata
// only: the presale contracts take the exact input amount and do not read a
// slippage tolerance.
const DefaultSlippageBps = 50

// Swap is the durable record of one conversion. It is owned by the store and
// mutated only by applying SwapUpdate values returned from the state machine.
type Swap struct {
	ID            string     `json:"id"`
	Status        SwapStatus `json:"status"`
	From          Asset      `json:"from"`
	To            Asset      `json:"to"`
	FromAccountID string     `json:"from_account_id"`
	ToAccountID   string     `json:"to_account_id"`
	FromAmount    string     `json:"from_amount"`
	ToAmount      string     `json:"to_amount"`
	Fee           string     `json:"fee,omitempty"`
	SlippageBps   int        `json:"slippage_bps"`
	ApproveTx     *TxRequest `json:"approve_tx,omitempty"`
	ApproveTxHash string     `json:"approve_tx_hash,omitempty"`
	SwapTx        *TxRequest `json:"swap_tx,omitempty"`
	SwapTxHash    string     `json:"swap_tx_hash,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Quote reconstructs the immutable quote the swap was created from.
func (s Swap) Quote() Quote {
	return Quote{
		From:       s.From,
		To:         s.To,
		FromAmount: s.FromAmount,
		ToAmount:   s.ToAmount,
		Fee:        s.Fee,
	}
}

// SwapUpdate is a partial update produced by one state-machine step. Zero
// fields are left untouched when the update is applied.
type SwapUpdate struct {
	Status        SwapStatus `json:"status,omitempty"`
	ApproveTx     *TxRequest `json:"approve_tx,omitempty"`
	ApproveTxHash string     `json:"approve_tx_hash,omitempty"`
	SwapTx        *TxRequest `json:"swap_tx,omitempty"`
	SwapTxHash    string     `json:"swap_tx_hash,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

// Apply merges the update into the swap record.
func (u SwapUpdate) Apply(s *Swap) {
	if u.Status != "" {
		s.Status = u.Status
	}
	if u.ApproveTx != nil {
		s.ApproveTx = u.ApproveTx
	}
	if u.ApproveTxHash != "" {
		s.ApproveTxHash = u.ApproveTxHash
	}
	if u.SwapTx != nil {
		s.SwapTx = u.SwapTx
	}
	if u.SwapTxHash != "" {
		s.SwapTxHash = u.SwapTxHash
	}
	if u.EndTime != nil {
		s.EndTime = u.EndTime
	}
}

// SwapEvent is published on the signal bus after every persisted status
// transition.
type SwapEvent struct {
	SwapID string     `json:"swap_id"`
	Status SwapStatus `json:"status"`
	TxHash string     `json:"tx_hash,omitempty"`
	At     time.Time  `json:"at"`
}
