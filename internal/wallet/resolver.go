package wallet

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quaylabs/saleswap/internal/domain"
)

// StaticResolver serves a single hot-wallet address on every chain. The
// service signs everything with one key, so the "unused address" for any
// asset set is always the key's own address.
type StaticResolver struct {
	address string
}

var _ domain.AccountResolver = (*StaticResolver)(nil)

// NewStaticResolver derives the wallet address from a hex private key.
func NewStaticResolver(privateKeyHex string) (*StaticResolver, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("wallet: parsing private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &StaticResolver{address: addr.Hex()}, nil
}

// Address returns the wallet's address.
func (r *StaticResolver) Address() string { return r.address }

// GetUnusedAddresses returns the wallet address regardless of chain or assets.
func (r *StaticResolver) GetUnusedAddresses(_ context.Context, _ string, _ []domain.Asset, _ string) ([]string, error) {
	return []string{r.address}, nil
}
