package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/quaylabs/saleswap/internal/domain"
)

// balanceOfABI is the single read the keeper needs beyond native balances.
const balanceOfMethod = "balanceOf"

const balanceOfABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var balanceOf = mustParseABI(balanceOfABI)

// BalanceKeeper implements domain.BalanceRefresher: it re-reads balances
// through the registry and records them in the balance cache. Callers treat
// it as fire-and-forget; a failed refresh is logged and dropped.
type BalanceKeeper struct {
	registry *Registry
	cache    domain.BalanceCache
	logger   *slog.Logger
}

// NewBalanceKeeper creates a keeper that caches refreshed balances.
func NewBalanceKeeper(registry *Registry, cache domain.BalanceCache, logger *slog.Logger) *BalanceKeeper {
	return &BalanceKeeper{
		registry: registry,
		cache:    cache,
		logger:   logger.With(slog.String("component", "balance_keeper")),
	}
}

// UpdateBalances reads the current balance of each asset for address and
// stores the observations. Per-asset failures do not stop the remaining
// reads.
func (k *BalanceKeeper) UpdateBalances(ctx context.Context, chainID, address string, assets []domain.Asset) error {
	client, err := k.registry.Get(ctx, chainID)
	if err != nil {
		return fmt.Errorf("chain: balance refresh: %w", err)
	}

	var firstErr error
	for _, asset := range assets {
		bal, err := k.readBalance(ctx, client, address, asset)
		if err != nil {
			k.logger.Warn("balance read failed",
				slog.String("asset", asset.Code),
				slog.String("address", address),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := k.cache.SetBalance(ctx, chainID, address, asset.Code, bal.String()); err != nil {
			k.logger.Warn("balance cache write failed",
				slog.String("asset", asset.Code),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (k *BalanceKeeper) readBalance(ctx context.Context, client *EthClient, address string, asset domain.Asset) (*big.Int, error) {
	if !asset.IsToken() {
		return client.BalanceAt(ctx, address)
	}

	data, err := balanceOf.Pack(balanceOfMethod, common.HexToAddress(address))
	if err != nil {
		return nil, fmt.Errorf("chain: pack balanceOf: %w", err)
	}
	out, err := client.Call(ctx, asset.ContractAddress, data)
	if err != nil {
		return nil, err
	}
	vals, err := balanceOf.Unpack(balanceOfMethod, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack balanceOf: %w", err)
	}
	return vals[0].(*big.Int), nil
}

var _ domain.BalanceRefresher = (*BalanceKeeper)(nil)
