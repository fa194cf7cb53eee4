package domain

import "errors"

var (
	// ErrTxNotFound marks a transaction hash the chain has not indexed yet.
	// It is an expected condition during polling, not a failure.
	ErrTxNotFound = errors.New("transaction not found")

	// ErrUnsupportedTxType is returned by the fee estimator for any
	// transaction type other than the swap type. It is a programmer error
	// and must never be retried.
	ErrUnsupportedTxType = errors.New("unsupported transaction type")

	ErrSwapNotFound  = errors.New("swap not found")
	ErrUnknownStatus = errors.New("unknown swap status")
	ErrUnknownChain  = errors.New("unknown chain id")
	ErrLockHeld      = errors.New("lock already held")
)
