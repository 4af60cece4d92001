package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial opens an RPC connection to url. The caller closes it.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return client, nil
}

// Ping measures the round trip of eth_blockNumber and returns the head block.
func Ping(ctx context.Context, url string) (latency time.Duration, blockNum uint64, err error) {
	client, err := Dial(ctx, url)
	if err != nil {
		return 0, 0, err
	}
	defer client.Close()

	start := time.Now()
	blockNum, err = client.BlockNumber(ctx)
	latency = time.Since(start)
	if err != nil {
		return latency, 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return latency, blockNum, nil
}
