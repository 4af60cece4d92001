package rpc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ep(url string, latency time.Duration, block uint64) rpc.Endpoint {
	return rpc.Endpoint{URL: url, Latency: latency, BlockNumber: block}
}

func down(url string) rpc.Endpoint {
	return rpc.Endpoint{URL: url, Err: errors.New("connection refused")}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := rpc.ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, rpc.AlgorithmFastest, a)

	a, err = rpc.ParseAlgorithm("failover")
	require.NoError(t, err)
	assert.Equal(t, rpc.AlgorithmFailover, a)

	_, err = rpc.ParseAlgorithm("random")
	assert.Error(t, err)
}

func TestPickerSelectsFastest(t *testing.T) {
	winner, err := rpc.NewPicker(rpc.AlgorithmFastest).Pick([]rpc.Endpoint{
		ep("http://slow", 200*time.Millisecond, 100),
		ep("http://fast", 30*time.Millisecond, 100),
		ep("http://medium", 80*time.Millisecond, 100),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://fast", winner.URL)
}

func TestPickerDiscardsStaleNodes(t *testing.T) {
	winner, err := rpc.NewPicker(rpc.AlgorithmFastest).Pick([]rpc.Endpoint{
		ep("http://fresh", 50*time.Millisecond, 1000),
		ep("http://stale", 10*time.Millisecond, 990),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://fresh", winner.URL, "stale node should be skipped even if faster")
}

func TestPickerFailoverKeepsOrder(t *testing.T) {
	winner, err := rpc.NewPicker(rpc.AlgorithmFailover).Pick([]rpc.Endpoint{
		down("http://primary"),
		ep("http://secondary", 90*time.Millisecond, 100),
		ep("http://tertiary", 10*time.Millisecond, 100),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://secondary", winner.URL)
}

func TestPickerRoundRobinCycles(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://rpc1", 0, 100),
		ep("http://rpc2", 0, 100),
	}
	p := rpc.NewPicker(rpc.AlgorithmRoundRobin)

	first, err := p.Pick(endpoints)
	require.NoError(t, err)
	second, err := p.Pick(endpoints)
	require.NoError(t, err)
	third, err := p.Pick(endpoints)
	require.NoError(t, err)

	assert.NotEqual(t, first.URL, second.URL)
	assert.Equal(t, first.URL, third.URL)
}

func TestPickerAllDown(t *testing.T) {
	_, err := rpc.NewPicker(rpc.AlgorithmFastest).Pick([]rpc.Endpoint{down("http://a"), down("http://b")})
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)

	_, err = rpc.NewPicker(rpc.AlgorithmFastest).Pick(nil)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}
