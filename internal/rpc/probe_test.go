package rpc_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Mohsinsiddi/coffee/internal/rpc"
	"github.com/Mohsinsiddi/coffee/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(t *testing.T, block uint64) *fixtures.RPCServer {
	t.Helper()
	return fixtures.NewRPCServer(t, map[string]fixtures.Handler{
		"eth_blockNumber": fixtures.Result(fmt.Sprintf("0x%x", block)),
	})
}

func TestProbeHealthy(t *testing.T) {
	srv := node(t, 1000)

	e := rpc.Probe(context.Background(), srv.URL)
	require.NoError(t, e.Err)
	assert.True(t, e.Healthy())
	assert.Equal(t, uint64(1000), e.BlockNumber)
}

func TestProbeAllKeepsOrder(t *testing.T) {
	a, b := node(t, 10), node(t, 20)

	out := rpc.ProbeAll(context.Background(), []string{a.URL, "http://127.0.0.1:19993", b.URL})
	require.Len(t, out, 3)
	assert.Equal(t, a.URL, out[0].URL)
	assert.False(t, out[1].Healthy())
	assert.Equal(t, uint64(20), out[2].BlockNumber)
}

func TestSelectBestSingleURLSkipsProbe(t *testing.T) {
	srv := node(t, 1)

	url, err := rpc.SelectBest(context.Background(), []string{srv.URL}, "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL, url)
	assert.Equal(t, 0, srv.Calls("eth_blockNumber"))
}

func TestSelectBestSkipsDeadNode(t *testing.T) {
	srv := node(t, 50)

	url, err := rpc.SelectBest(context.Background(), []string{"http://127.0.0.1:19994", srv.URL}, "failover")
	require.NoError(t, err)
	assert.Equal(t, srv.URL, url)
}

func TestSelectBestEmpty(t *testing.T) {
	_, err := rpc.SelectBest(context.Background(), nil, "")
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}
