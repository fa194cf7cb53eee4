package swap

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/quaylabs/saleswap/internal/domain"
)

// ApprovalManager decides whether the source token needs a spending
// allowance for the presale contract and, when it does, builds and submits
// the approval transaction.
type ApprovalManager struct {
	tokens      domain.TokenContract
	client      domain.ChainClient
	locks       domain.LockManager
	resolver    domain.AccountResolver
	saleAddress string
	logger      *slog.Logger
}

// NewApprovalManager creates an ApprovalManager. saleAddress is the spender
// the allowance is granted to.
func NewApprovalManager(
	tokens domain.TokenContract,
	client domain.ChainClient,
	locks domain.LockManager,
	resolver domain.AccountResolver,
	saleAddress string,
	logger *slog.Logger,
) *ApprovalManager {
	return &ApprovalManager{
		tokens:      tokens,
		client:      client,
		locks:       locks,
		resolver:    resolver,
		saleAddress: saleAddress,
		logger:      logger.With(slog.String("component", "approval_manager")),
	}
}

// RequiresApproval reports whether the quote's input needs a new allowance.
// Native source assets never do. For tokens the existing allowance is
// compared against the exact requested amount: an allowance equal to the
// request is sufficient. Every swap is checked independently; no infinite
// approval is assumed.
func (m *ApprovalManager) RequiresApproval(ctx context.Context, quote domain.Quote, owner string) (bool, error) {
	if !quote.From.IsToken() {
		return false, nil
	}

	requested, err := baseUnitsInt(quote.FromAmount)
	if err != nil {
		return false, err
	}

	allowance, err := m.tokens.Allowance(ctx, quote.From.ContractAddress, owner, m.saleAddress)
	if err != nil {
		return false, fmt.Errorf("swap: read allowance: %w", err)
	}

	return allowance.Cmp(requested) < 0, nil
}

// BuildApprovalTx constructs the approve call for the exact requested
// amount. The From field is informational: it scopes gas estimation only.
func (m *ApprovalManager) BuildApprovalTx(quote domain.Quote, owner string) (domain.TxRequest, error) {
	requested, err := baseUnitsInt(quote.FromAmount)
	if err != nil {
		return domain.TxRequest{}, err
	}

	data, err := m.tokens.EncodeApprove(m.saleAddress, requested)
	if err != nil {
		return domain.TxRequest{}, err
	}

	return domain.TxRequest{
		From:  owner,
		To:    quote.From.ContractAddress,
		Value: big.NewInt(0),
		Data:  data,
	}, nil
}

// ApproveTokens runs the approval leg for a new swap. When no allowance is
// needed it reports APPROVE_CONFIRMED without touching the chain. Otherwise
// it submits the approval transaction under the (network, asset) submission
// lock and reports WAITING_FOR_APPROVE_CONFIRMATIONS with the transaction
// and hash.
func (m *ApprovalManager) ApproveTokens(ctx context.Context, sw *domain.Swap) (*domain.SwapUpdate, error) {
	owner, err := ownerAddress(ctx, m.resolver, sw)
	if err != nil {
		return nil, err
	}

	required, err := m.RequiresApproval(ctx, sw.Quote(), owner)
	if err != nil {
		return nil, err
	}
	if !required {
		return &domain.SwapUpdate{Status: domain.StatusApproveConfirmed}, nil
	}

	tx, err := m.BuildApprovalTx(sw.Quote(), owner)
	if err != nil {
		return nil, err
	}

	unlock, err := m.locks.Acquire(ctx, submissionKey(sw.From.ChainID, sw.From.Code))
	if err != nil {
		return nil, fmt.Errorf("swap: acquire submission lock: %w", err)
	}
	defer unlock()

	hash, err := m.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("swap: submit approval: %w", err)
	}

	m.logger.Info("approval submitted",
		slog.String("swap_id", sw.ID),
		slog.String("tx_hash", hash),
	)

	return &domain.SwapUpdate{
		Status:        domain.StatusWaitingForApproveConfirmations,
		ApproveTx:     &tx,
		ApproveTxHash: hash,
	}, nil
}

// baseUnitsInt parses a base-unit decimal string into a big integer.
func baseUnitsInt(s string) (*big.Int, error) {
	d, err := amountUnits(s)
	if err != nil {
		return nil, err
	}
	return d.BigInt(), nil
}
