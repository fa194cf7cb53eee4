package swap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quaylabs/saleswap/internal/domain"
)

// Machine is the top-level swap driver. Each invocation performs exactly one
// side-effecting action for the swap's current status and returns either no
// update or a partial update to merge into the durable record. It never
// retries internally; cadence belongs to the caller.
type Machine struct {
	executor *Executor
	poller   *Poller
	logger   *slog.Logger
}

// NewMachine creates a Machine over the executor and poller.
func NewMachine(executor *Executor, poller *Poller, logger *slog.Logger) *Machine {
	return &Machine{
		executor: executor,
		poller:   poller,
		logger:   logger.With(slog.String("component", "state_machine")),
	}
}

// PerformNextAction advances the swap by at most one status. Terminal
// statuses are no-ops. Statuses only move forward along
// WAITING_FOR_APPROVE_CONFIRMATIONS -> APPROVE_CONFIRMED ->
// WAITING_FOR_SWAP_CONFIRMATIONS -> SUCCESS | FAILED.
func (m *Machine) PerformNextAction(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error) {
	switch sw.Status {
	case domain.StatusWaitingForApproveConfirmations:
		return m.poller.WaitForApproveConfirmations(ctx, sw)
	case domain.StatusApproveConfirmed:
		return m.executor.SendSwap(ctx, sw)
	case domain.StatusWaitingForSwapConfirmations:
		return m.poller.WaitForSwapConfirmations(ctx, sw)
	case domain.StatusSuccess, domain.StatusFailed:
		return nil, nil
	default:
		return nil, fmt.Errorf("swap: swap %s status %q: %w", sw.ID, sw.Status, domain.ErrUnknownStatus)
	}
}
