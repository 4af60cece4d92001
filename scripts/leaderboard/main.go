// leaderboard: reads every contribution from each network that has a coffee
// contract, in parallel, and prints the top supporters per network.
//
// Run from the module root:
//
//	go run ./scripts/leaderboard
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/ethereum/go-ethereum/common"
)

// ── config ────────────────────────────────────────────────────────────────────

const (
	rpcTimeout = 20 * time.Second
	topN       = 10
)

// ── types ─────────────────────────────────────────────────────────────────────

type supporter struct {
	address common.Address
	total   *big.Int
	count   int
}

type result struct {
	network    string
	symbol     string
	supporters []supporter
	err        string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	reg := chain.NewRegistry()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, n := range reg.All() {
		if n.ContractAddress == "" || len(n.RPCs) == 0 {
			continue
		}
		wg.Add(1)
		go func(n chain.Network) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
			defer cancel()

			r := result{network: n.Name, symbol: n.NativeCurrency}
			contributions, err := fetch(ctx, n)
			if err != nil {
				r.err = shortErr(err)
			} else {
				r.supporters = rank(contributions)
			}

			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(n)
	}

	wg.Wait()

	printTable(results)
}

func fetch(ctx context.Context, n chain.Network) ([]contract.Contribution, error) {
	c, err := contract.DialReadOnly(ctx, n.RPCs[0], common.HexToAddress(n.ContractAddress))
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.GetContributions(ctx)
}

// rank sums contributions per supporter, biggest total first.
func rank(contributions []contract.Contribution) []supporter {
	byAddr := make(map[common.Address]*supporter)
	for _, c := range contributions {
		s, ok := byAddr[c.Supporter]
		if !ok {
			s = &supporter{address: c.Supporter, total: new(big.Int)}
			byAddr[c.Supporter] = s
		}
		if c.Amount != nil {
			s.total.Add(s.total, c.Amount)
		}
		s.count++
	}

	out := make([]supporter, 0, len(byAddr))
	for _, s := range byAddr {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].total.Cmp(out[j].total); c != 0 {
			return c > 0
		}
		return out[i].address.Hex() < out[j].address.Hex()
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool { return results[i].network < results[j].network })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NETWORK\t#\tSUPPORTER\tCOFFEES\tTOTAL\tSYMBOL\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 2)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 7)+"\t"+
		strings.Repeat("-", 20)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 12))

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w, "\t\t\t\t\t\t") // blank separator between networks
		}
		if r.err != "" {
			fmt.Fprintf(w, "%s\t\t—\t—\t—\t%s\t%s\n", r.network, r.symbol, r.err)
			continue
		}
		if len(r.supporters) == 0 {
			fmt.Fprintf(w, "%s\t\t—\t0\t0\t%s\tno coffees yet\n", r.network, r.symbol)
			continue
		}
		for rank, s := range r.supporters {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\t\n",
				r.network, rank+1, shortAddr(s.address.Hex()), s.count, chain.FormatEther(s.total), r.symbol)
		}
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
