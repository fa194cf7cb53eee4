// Package chain adapts go-ethereum to the narrow ports the swap core
// consumes: a chain client handle, read/encode contract surfaces, and a
// get-or-create client registry.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/quaylabs/saleswap/internal/domain"
)

// EthClient implements domain.ChainClient on top of a JSON-RPC endpoint.
// Submission signs locally with the configured key; the From field of a
// TxRequest is never used to select a signing key.
type EthClient struct {
	ec      *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
}

// Dial connects to rpcURL and prepares a client for the given chain. The
// private key is hex-encoded with an optional 0x prefix.
func Dial(ctx context.Context, rpcURL, privateKeyHex string, chainID *big.Int) (*EthClient, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse private key: %w", err)
	}

	return &EthClient{
		ec:      ec,
		chainID: chainID,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// From returns the address transactions are signed with.
func (c *EthClient) From() common.Address {
	return c.from
}

// SendTransaction fills in nonce, gas price, and gas limit where the request
// leaves them unset, signs the transaction, and broadcasts it.
func (c *EthClient) SendTransaction(ctx context.Context, tx domain.TxRequest) (string, error) {
	to := common.HexToAddress(tx.To)

	nonce, err := c.ec.PendingNonceAt(ctx, c.from)
	if err != nil {
		return "", fmt.Errorf("chain: pending nonce: %w", err)
	}

	gasPrice := tx.GasPrice
	if gasPrice == nil {
		gasPrice, err = c.ec.SuggestGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("chain: suggest gas price: %w", err)
		}
	}

	value := tx.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gas := tx.Gas
	if gas == 0 {
		gas, err = c.ec.EstimateGas(ctx, ethereum.CallMsg{
			From:     c.from,
			To:       &to,
			GasPrice: gasPrice,
			Value:    value,
			Data:     tx.Data,
		})
		if err != nil {
			return "", fmt.Errorf("chain: estimate gas: %w", err)
		}
	}

	raw := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     tx.Data,
	})
	signed, err := types.SignTx(raw, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("chain: sign tx: %w", err)
	}

	if err := c.ec.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("chain: send tx: %w", err)
	}

	return signed.Hash().Hex(), nil
}

// TransactionByHash looks a transaction up and reports how many blocks have
// confirmed it. A pending transaction has zero confirmations. A hash the
// node does not know maps to domain.ErrTxNotFound.
func (c *EthClient) TransactionByHash(ctx context.Context, hash string) (domain.TxLookup, error) {
	h := common.HexToHash(hash)

	_, pending, err := c.ec.TransactionByHash(ctx, h)
	if err != nil {
		if isNotFound(err) {
			return domain.TxLookup{}, fmt.Errorf("chain: tx %s: %w", hash, domain.ErrTxNotFound)
		}
		return domain.TxLookup{}, fmt.Errorf("chain: tx by hash %s: %w", hash, err)
	}
	if pending {
		return domain.TxLookup{Hash: hash, Confirmations: 0}, nil
	}

	receipt, err := c.ec.TransactionReceipt(ctx, h)
	if err != nil {
		if isNotFound(err) {
			return domain.TxLookup{Hash: hash, Confirmations: 0}, nil
		}
		return domain.TxLookup{}, fmt.Errorf("chain: receipt for %s: %w", hash, err)
	}

	head, err := c.ec.BlockNumber(ctx)
	if err != nil {
		return domain.TxLookup{}, fmt.Errorf("chain: block number: %w", err)
	}

	var confirmations uint64
	if included := receipt.BlockNumber.Uint64(); head >= included {
		confirmations = head - included + 1
	}

	return domain.TxLookup{Hash: hash, Confirmations: confirmations}, nil
}

// TransactionReceipt returns the mined transaction's receipt status.
func (c *EthClient) TransactionReceipt(ctx context.Context, hash string) (domain.TxReceipt, error) {
	receipt, err := c.ec.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if isNotFound(err) {
			return domain.TxReceipt{}, fmt.Errorf("chain: receipt %s: %w", hash, domain.ErrTxNotFound)
		}
		return domain.TxReceipt{}, fmt.Errorf("chain: receipt %s: %w", hash, err)
	}
	return domain.TxReceipt{Status: receipt.Status}, nil
}

// EstimateGas estimates gas for the request. The request's From address is
// used so token allowance checks inside the estimated call resolve correctly.
func (c *EthClient) EstimateGas(ctx context.Context, tx domain.TxRequest) (uint64, error) {
	from := c.from
	if tx.From != "" {
		from = common.HexToAddress(tx.From)
	}
	to := common.HexToAddress(tx.To)

	gas, err := c.ec.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: tx.Value,
		Data:  tx.Data,
	})
	if err != nil {
		return 0, fmt.Errorf("chain: estimate gas: %w", err)
	}
	return gas, nil
}

// Call executes a read-only contract call. Contract surfaces build on this.
func (c *EthClient) Call(ctx context.Context, to string, data []byte) ([]byte, error) {
	addr := common.HexToAddress(to)
	out, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", to, err)
	}
	return out, nil
}

// BalanceAt returns the native balance of an address at the latest block.
func (c *EthClient) BalanceAt(ctx context.Context, addr string) (*big.Int, error) {
	bal, err := c.ec.BalanceAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("chain: balance of %s: %w", addr, err)
	}
	return bal, nil
}

// isNotFound matches go-ethereum's not-found error both by sentinel and by
// message, since some RPC providers return plain "not found" strings.
func isNotFound(err error) bool {
	if errors.Is(err, ethereum.NotFound) {
		return true
	}
	return strings.Contains(err.Error(), "not found")
}

var _ domain.ChainClient = (*EthClient)(nil)
