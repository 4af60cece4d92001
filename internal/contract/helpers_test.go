package contract_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

var coffeeAddr = common.HexToAddress("0x392a0124ffcFeaA44E082E47093945085cD85500")

type callArgs struct {
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

func (a callArgs) calldata() []byte {
	if len(a.Input) > 0 {
		return a.Input
	}
	return a.Data
}

// ethCall dispatches eth_call by selector to per-method results.
func ethCall(t *testing.T, results map[string][]byte) func([]json.RawMessage) (any, error) {
	t.Helper()
	abi := contract.ABI()
	return func(params []json.RawMessage) (any, error) {
		var args callArgs
		require.NoError(t, json.Unmarshal(params[0], &args))
		data := args.calldata()
		method, err := abi.MethodById(data[:4])
		require.NoError(t, err)
		out, ok := results[method.Name]
		if !ok {
			return nil, errExecutionReverted
		}
		return hexutil.Encode(out), nil
	}
}

type rpcErr string

func (e rpcErr) Error() string { return string(e) }

const errExecutionReverted = rpcErr("execution reverted")

func packContributions(t *testing.T, cs []contract.Contribution) []byte {
	t.Helper()
	out, err := contract.ABI().Methods["getContributions"].Outputs.Pack(cs)
	require.NoError(t, err)
	return out
}

func packOwner(t *testing.T, owner common.Address) []byte {
	t.Helper()
	out, err := contract.ABI().Methods["owner"].Outputs.Pack(owner)
	require.NoError(t, err)
	return out
}

func contribution(supporter string, amount int64, msg string, ts int64) contract.Contribution {
	return contract.Contribution{
		Supporter: common.HexToAddress(supporter),
		Amount:    big.NewInt(amount),
		Message:   msg,
		Timestamp: big.NewInt(ts),
	}
}
