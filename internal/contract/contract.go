package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoContract is returned when the address has no code behind it.
var ErrNoContract = errors.New("no contract deployed at address")

// Contribution is one entry of getContributions().
type Contribution struct {
	Supporter common.Address
	Amount    *big.Int
	Message   string
	Timestamp *big.Int
}

// Time converts the on-chain unix timestamp.
func (c Contribution) Time() time.Time {
	if c.Timestamp == nil {
		return time.Time{}
	}
	return time.Unix(c.Timestamp.Int64(), 0)
}

// ReadBackend is the subset of ethclient the read handle needs.
type ReadBackend interface {
	ethereum.ContractCaller
	ethereum.LogFilterer
	BlockNumber(ctx context.Context) (uint64, error)
}

// Contract is a read-only handle bound to one deployed contract.
type Contract struct {
	address common.Address
	backend ReadBackend
	close   func()
}

// NewContract binds address on backend.
func NewContract(address common.Address, backend ReadBackend) *Contract {
	return &Contract{address: address, backend: backend, close: func() {}}
}

// DialReadOnly opens its own RPC connection to rpcURL. The feed works with
// no wallet at all; the caller closes the handle.
func DialReadOnly(ctx context.Context, rpcURL string, address common.Address) (*Contract, error) {
	client, err := chain.Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	c := NewContract(address, client)
	c.close = client.Close
	return c, nil
}

// Address is the bound contract address.
func (c *Contract) Address() common.Address { return c.address }

// Close releases the underlying connection when the handle owns one.
func (c *Contract) Close() { c.close() }

// GetContributions reads the full contribution list in contract order
// (oldest first).
func (c *Contract) GetContributions(ctx context.Context) ([]Contribution, error) {
	out, err := c.call(ctx, "getContributions")
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getContributions: unexpected %d outputs", len(out))
	}
	contributions := *abi.ConvertType(out[0], new([]Contribution)).(*[]Contribution)
	return contributions, nil
}

// Owner reads the contract owner.
func (c *Contract) Owner(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("owner: unexpected output %T", out[0])
	}
	return owner, nil
}

// LatestBlock returns the head block number.
func (c *Contract) LatestBlock(ctx context.Context) (uint64, error) {
	return c.backend.BlockNumber(ctx)
}

func (c *Contract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := coffeeABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &c.address, Data: data}
	raw, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("calling %s at %s: %w", method, c.address.Hex(), ErrNoContract)
	}
	out, err := coffeeABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return out, nil
}

// NewestFirst returns a reversed copy; the input is left untouched.
func NewestFirst(in []Contribution) []Contribution {
	out := make([]Contribution, len(in))
	for i, c := range in {
		out[len(in)-1-i] = c
	}
	return out
}
