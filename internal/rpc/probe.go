package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
)

const probeTimeout = 5 * time.Second

// Probe pings a single RPC URL.
func Probe(ctx context.Context, url string) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	latency, block, err := chain.Ping(ctx, url)
	return Endpoint{URL: url, Latency: latency, BlockNumber: block, Err: err}
}

// ProbeAll pings every URL in parallel. Results keep the input order.
func ProbeAll(ctx context.Context, urls []string) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			out[i] = Probe(ctx, url)
		}(i, url)
	}
	wg.Wait()
	return out
}

// SelectBest returns the URL to use for this run. A single URL is returned
// without probing.
func SelectBest(ctx context.Context, urls []string, algorithm string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoHealthyRPC
	}
	if len(urls) == 1 {
		return urls[0], nil
	}
	algo, err := ParseAlgorithm(algorithm)
	if err != nil {
		return "", err
	}
	winner, err := NewPicker(algo).Pick(ProbeAll(ctx, urls))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
