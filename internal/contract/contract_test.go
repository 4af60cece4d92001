package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/Mohsinsiddi/coffee/test/fixtures"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetContributions(t *testing.T) {
	want := []contract.Contribution{
		contribution("0x1111111111111111111111111111111111111111", 1e15, "first", 1700000000),
		contribution("0x2222222222222222222222222222222222222222", 5e15, "second", 1700000100),
	}
	srv := fixtures.NewRPCServer(t, map[string]fixtures.Handler{
		"eth_call": ethCall(t, map[string][]byte{"getContributions": packContributions(t, want)}),
	})

	c, err := contract.DialReadOnly(context.Background(), srv.URL, coffeeAddr)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.GetContributions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Message)
	assert.Equal(t, want[1].Supporter, got[1].Supporter)
	assert.Equal(t, 0, want[1].Amount.Cmp(got[1].Amount))
	assert.Equal(t, time.Unix(1700000100, 0), got[1].Time())
}

func TestGetContributionsEmpty(t *testing.T) {
	srv := fixtures.NewRPCServer(t, map[string]fixtures.Handler{
		"eth_call": ethCall(t, map[string][]byte{"getContributions": packContributions(t, []contract.Contribution{})}),
	})

	c, err := contract.DialReadOnly(context.Background(), srv.URL, coffeeAddr)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.GetContributions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetContributionsNoCode(t *testing.T) {
	srv := fixtures.NewRPCServer(t, map[string]fixtures.Handler{
		"eth_call": fixtures.Result("0x"),
	})

	c, err := contract.DialReadOnly(context.Background(), srv.URL, coffeeAddr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.GetContributions(context.Background())
	assert.ErrorIs(t, err, contract.ErrNoContract)
}

func TestGetContributionsRPCError(t *testing.T) {
	srv := fixtures.NewRPCServer(t, map[string]fixtures.Handler{})

	c, err := contract.DialReadOnly(context.Background(), srv.URL, coffeeAddr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.GetContributions(context.Background())
	assert.ErrorContains(t, err, "calling getContributions")
}

func TestOwner(t *testing.T) {
	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	srv := fixtures.NewRPCServer(t, map[string]fixtures.Handler{
		"eth_call": ethCall(t, map[string][]byte{"owner": packOwner(t, owner)}),
	})

	c, err := contract.DialReadOnly(context.Background(), srv.URL, coffeeAddr)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Owner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestNewestFirst(t *testing.T) {
	in := []contract.Contribution{
		contribution("0x01", 1, "a", 1),
		contribution("0x02", 2, "b", 2),
		contribution("0x03", 3, "c", 3),
	}

	out := contract.NewestFirst(in)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{out[0].Message, out[1].Message, out[2].Message})
	assert.Equal(t, "a", in[0].Message, "input must not be reordered")
	assert.Empty(t, contract.NewestFirst(nil))
}

func TestABIMethods(t *testing.T) {
	methods := contract.ABI().Methods
	require.Contains(t, methods, "withdraw")
	assert.Equal(t, "0x3ccfd60b", hexutil.Encode(methods["withdraw"].ID))
	assert.NotContains(t, methods, "transfer")
}
