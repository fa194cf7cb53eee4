package domain

// StatusMeta is presentation metadata for a swap status: the ordinal step in
// the flow, a short operator-facing label, and the list filter bucket the
// status belongs to. It is consumed by the HTTP layer and notification text;
// the state machine never reads it.
type StatusMeta struct {
	Step   int    `json:"step"`
	Label  string `json:"label"`
	Filter string `json:"filter"`
}

// Filter buckets for swap lists.
const (
	FilterPending   = "PENDING"
	FilterCompleted = "COMPLETED"
	FilterFailed    = "FAILED"
)

var statusMeta = map[SwapStatus]StatusMeta{
	StatusWaitingForApproveConfirmations: {Step: 0, Label: "Approving token spend", Filter: FilterPending},
	StatusApproveConfirmed:               {Step: 1, Label: "Submitting swap", Filter: FilterPending},
	StatusWaitingForSwapConfirmations:    {Step: 2, Label: "Waiting for confirmations", Filter: FilterPending},
	StatusSuccess:                        {Step: 3, Label: "Completed", Filter: FilterCompleted},
	StatusFailed:                         {Step: 3, Label: "Swap failed", Filter: FilterFailed},
}

// MetaFor returns the display metadata for a status.
func MetaFor(s SwapStatus) (StatusMeta, bool) {
	m, ok := statusMeta[s]
	return m, ok
}
