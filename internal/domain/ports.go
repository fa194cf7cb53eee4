package domain

import (
	"context"
	"math/big"
	"time"
)

// ChainClient is the narrow surface the core needs from an RPC client. One
// client handle exists per chain and is shared by every swap on that chain.
//
// TransactionByHash returns ErrTxNotFound (possibly wrapped) when the hash is
// not indexed yet; every other error is unexpected and propagates.
type ChainClient interface {
	SendTransaction(ctx context.Context, tx TxRequest) (hash string, err error)
	TransactionByHash(ctx context.Context, hash string) (TxLookup, error)
	TransactionReceipt(ctx context.Context, hash string) (TxReceipt, error)
	EstimateGas(ctx context.Context, tx TxRequest) (uint64, error)
}

// TokenContract reads and encodes calls against an ERC-20 style token.
type TokenContract interface {
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
	EncodeApprove(spender string, amount *big.Int) ([]byte, error)
}

// SaleContract reads the presale contract's status and pricing.
type SaleContract interface {
	IsClosed(ctx context.Context) (bool, error)
	PPM(ctx context.Context) (*big.Int, error)
	ExchangeRate(ctx context.Context) (*big.Int, error)
}

// ControllerContract encodes the deposit call against the controller.
type ControllerContract interface {
	EncodeContribute(amount *big.Int) ([]byte, error)
}

// AccountResolver maps an account to usable addresses for a set of assets.
// Key management itself lives outside this service.
type AccountResolver interface {
	GetUnusedAddresses(ctx context.Context, chainID string, assets []Asset, accountID string) ([]string, error)
}

// BalanceRefresher re-reads balances after a terminal swap state. It is a
// fire-and-forget side effect; correctness never depends on it.
type BalanceRefresher interface {
	UpdateBalances(ctx context.Context, chainID, address string, assets []Asset) error
}

// SwapStore persists swap records. Save must write the transaction hashes in
// the same store write as the status transition so a crash cannot separate
// them.
type SwapStore interface {
	Create(ctx context.Context, s Swap) error
	Save(ctx context.Context, id string, upd SwapUpdate) error
	GetByID(ctx context.Context, id string) (Swap, error)
	ListActive(ctx context.Context) ([]Swap, error)
	ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]Swap, error)
}

// LockManager serializes mutating transaction submissions. Acquire blocks
// until the lock for key is free or ctx is done; the returned unlock must be
// called on every exit path and is safe to call more than once.
type LockManager interface {
	Acquire(ctx context.Context, key string) (unlock func(), err error)
}

// SignalBus is ephemeral pub/sub for swap status events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BalanceCache records the latest observed balance per (chain, address,
// asset).
type BalanceCache interface {
	SetBalance(ctx context.Context, chainID, address, assetCode, amount string) error
}
