package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quaylabs/saleswap/internal/domain"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const saleABI = `[
	{"constant":true,"inputs":[],"name":"isClosed","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"PPM","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"exchangeRate","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const controllerABI = `[
	{"constant":false,"inputs":[{"name":"_value","type":"uint256"}],"name":"contribute","outputs":[],"stateMutability":"payable","type":"function"}
]`

func mustParseABI(src string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("chain: parse abi: %v", err))
	}
	return parsed
}

var (
	erc20      = mustParseABI(erc20ABI)
	sale       = mustParseABI(saleABI)
	controller = mustParseABI(controllerABI)
)

// caller is the read surface contracts need from a client.
type caller interface {
	Call(ctx context.Context, to string, data []byte) ([]byte, error)
}

// ERC20 implements domain.TokenContract against any ERC-20 token.
type ERC20 struct {
	client caller
}

// NewERC20 builds the token surface over the given client.
func NewERC20(client caller) *ERC20 {
	return &ERC20{client: client}
}

// Allowance reads the amount owner has authorized spender to move.
func (t *ERC20) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	data, err := erc20.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("chain: pack allowance: %w", err)
	}

	out, err := t.client.Call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("chain: allowance call: %w", err)
	}

	vals, err := erc20.Unpack("allowance", out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack allowance: %w", err)
	}
	return vals[0].(*big.Int), nil
}

// EncodeApprove returns calldata approving spender for exactly amount.
func (t *ERC20) EncodeApprove(spender string, amount *big.Int) ([]byte, error) {
	data, err := erc20.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return nil, fmt.Errorf("chain: pack approve: %w", err)
	}
	return data, nil
}

// Sale implements domain.SaleContract bound to one presale address.
type Sale struct {
	client  caller
	address string
}

// NewSale binds the sale surface to the presale contract address.
func NewSale(client caller, address string) *Sale {
	return &Sale{client: client, address: address}
}

// Address returns the presale contract address the surface is bound to.
func (s *Sale) Address() string {
	return s.address
}

// IsClosed reports whether the sale has stopped accepting deposits.
func (s *Sale) IsClosed(ctx context.Context) (bool, error) {
	out, err := s.call(ctx, "isClosed")
	if err != nil {
		return false, err
	}
	vals, err := sale.Unpack("isClosed", out)
	if err != nil {
		return false, fmt.Errorf("chain: unpack isClosed: %w", err)
	}
	return vals[0].(bool), nil
}

// PPM returns the parts-per-million denominator of the exchange rate.
func (s *Sale) PPM(ctx context.Context) (*big.Int, error) {
	return s.callUint(ctx, "PPM")
}

// ExchangeRate returns the integer exchange-rate numerator.
func (s *Sale) ExchangeRate(ctx context.Context) (*big.Int, error) {
	return s.callUint(ctx, "exchangeRate")
}

func (s *Sale) call(ctx context.Context, method string) ([]byte, error) {
	data, err := sale.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	out, err := s.client.Call(ctx, s.address, data)
	if err != nil {
		return nil, fmt.Errorf("chain: %s call: %w", method, err)
	}
	return out, nil
}

func (s *Sale) callUint(ctx context.Context, method string) (*big.Int, error) {
	out, err := s.call(ctx, method)
	if err != nil {
		return nil, err
	}
	vals, err := sale.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return vals[0].(*big.Int), nil
}

// Controller implements domain.ControllerContract.
type Controller struct {
	address string
}

// NewController binds the controller surface to the deposit contract address.
func NewController(address string) *Controller {
	return &Controller{address: address}
}

// Address returns the controller contract address.
func (c *Controller) Address() string {
	return c.address
}

// EncodeContribute returns calldata depositing exactly amount. For native
// deposits the transaction value carries the amount as well; for token
// deposits value stays zero and the allowance moves the funds.
func (c *Controller) EncodeContribute(amount *big.Int) ([]byte, error) {
	data, err := controller.Pack("contribute", amount)
	if err != nil {
		return nil, fmt.Errorf("chain: pack contribute: %w", err)
	}
	return data, nil
}

var (
	_ domain.TokenContract      = (*ERC20)(nil)
	_ domain.SaleContract       = (*Sale)(nil)
	_ domain.ControllerContract = (*Controller)(nil)
)
