package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quaylabs/saleswap/internal/domain"
)

// balanceTTL keeps stale balances from outliving a long quiet period. The
// refresher overwrites entries long before this expires in normal operation.
const balanceTTL = 24 * time.Hour

// BalanceCache implements domain.BalanceCache with one key per
// (chain, address, asset).
type BalanceCache struct {
	rdb *redis.Client
}

// NewBalanceCache creates a BalanceCache backed by the given Client.
func NewBalanceCache(c *Client) *BalanceCache {
	return &BalanceCache{rdb: c.Underlying()}
}

func balanceKey(chainID, address, assetCode string) string {
	return fmt.Sprintf("balance:%s:%s:%s", chainID, address, assetCode)
}

// SetBalance records the latest observed base-unit balance.
func (b *BalanceCache) SetBalance(ctx context.Context, chainID, address, assetCode, amount string) error {
	key := balanceKey(chainID, address, assetCode)
	if err := b.rdb.Set(ctx, key, amount, balanceTTL).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// GetBalance returns the last recorded balance, or "" when none is cached.
func (b *BalanceCache) GetBalance(ctx context.Context, chainID, address, assetCode string) (string, error) {
	key := balanceKey(chainID, address, assetCode)
	val, err := b.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, nil
}

var _ domain.BalanceCache = (*BalanceCache)(nil)
