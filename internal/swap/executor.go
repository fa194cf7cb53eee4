package swap

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/quaylabs/saleswap/internal/domain"
)

// Executor builds and submits the deposit transaction against the
// controller contract.
type Executor struct {
	controller        domain.ControllerContract
	client            domain.ChainClient
	locks             domain.LockManager
	resolver          domain.AccountResolver
	controllerAddress string
	logger            *slog.Logger
}

// NewExecutor creates an Executor targeting the controller contract at
// controllerAddress.
func NewExecutor(
	controller domain.ControllerContract,
	client domain.ChainClient,
	locks domain.LockManager,
	resolver domain.AccountResolver,
	controllerAddress string,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		controller:        controller,
		client:            client,
		locks:             locks,
		resolver:          resolver,
		controllerAddress: controllerAddress,
		logger:            logger.With(slog.String("component", "swap_executor")),
	}
}

// BuildSwapTx encodes the contribute call for the exact input amount. The
// transaction value carries the amount only when the source asset is the
// chain's native asset; token deposits move value through the allowance and
// keep value at zero.
func (e *Executor) BuildSwapTx(sw *domain.Swap, owner string) (domain.TxRequest, error) {
	amount, err := baseUnitsInt(sw.FromAmount)
	if err != nil {
		return domain.TxRequest{}, err
	}

	data, err := e.controller.EncodeContribute(amount)
	if err != nil {
		return domain.TxRequest{}, err
	}

	value := big.NewInt(0)
	if !sw.From.IsToken() {
		value = amount
	}

	return domain.TxRequest{
		From:  owner,
		To:    e.controllerAddress,
		Value: value,
		Data:  data,
	}, nil
}

// SendSwap submits the deposit transaction under the (network, asset)
// submission lock and reports WAITING_FOR_SWAP_CONFIRMATIONS with the
// transaction and hash.
func (e *Executor) SendSwap(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error) {
	owner, err := ownerAddress(ctx, e.resolver, sw)
	if err != nil {
		return nil, err
	}

	tx, err := e.BuildSwapTx(sw, owner)
	if err != nil {
		return nil, err
	}

	unlock, err := e.locks.Acquire(ctx, submissionKey(sw.From.ChainID, sw.From.Code))
	if err != nil {
		return nil, fmt.Errorf("swap: acquire submission lock: %w", err)
	}
	defer unlock()

	hash, err := e.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("swap: submit deposit: %w", err)
	}

	e.logger.Info("deposit submitted",
		slog.String("swap_id", sw.ID),
		slog.String("tx_hash", hash),
	)

	return &domain.SwapUpdate{
		Status:     domain.StatusWaitingForSwapConfirmations,
		SwapTx:     &tx,
		SwapTxHash: hash,
	}, nil
}
