package cmd

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	"github.com/Mohsinsiddi/coffee/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withConfig installs a fresh config in a temp dir for one test.
func withConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.Load(t.TempDir())
	require.NoError(t, err)
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}

type fakeSource struct {
	mu      sync.Mutex
	head    uint64
	headErr error
	events  map[uint64]contract.CoffeeBought
	queries [][2]uint64
}

func (f *fakeSource) LatestBlock(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, f.headErr
}

func (f *fakeSource) FilterCoffeeBought(_ context.Context, from uint64, to *uint64) ([]contract.CoffeeBought, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, [2]uint64{from, *to})
	var out []contract.CoffeeBought
	for b := from; b <= *to; b++ {
		if ev, ok := f.events[b]; ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeSource) setHead(h uint64) {
	f.mu.Lock()
	f.head = h
	f.mu.Unlock()
}

func coffeeAt(block uint64, msg string) contract.CoffeeBought {
	return contract.CoffeeBought{
		Contribution: contract.Contribution{
			Supporter: common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
			Amount:    big.NewInt(1e15),
			Message:   msg,
			Timestamp: big.NewInt(1700000000),
		},
		BlockNumber: block,
	}
}

func TestPollCoffeesNoNewBlock(t *testing.T) {
	src := &fakeSource{head: 10}
	events, head, err := pollCoffees(context.Background(), src, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, uint64(10), head)
	assert.Empty(t, src.queries)
}

func TestPollCoffeesQueriesOnlyNewRange(t *testing.T) {
	src := &fakeSource{head: 13, events: map[uint64]contract.CoffeeBought{
		10: coffeeAt(10, "old"),
		12: coffeeAt(12, "new"),
	}}
	events, head, err := pollCoffees(context.Background(), src, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(13), head)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].Message)
	assert.Equal(t, [][2]uint64{{11, 13}}, src.queries)
}

func TestPollCoffeesKeepsHeadOnError(t *testing.T) {
	src := &fakeSource{headErr: errors.New("boom")}
	_, head, err := pollCoffees(context.Background(), src, 7)
	assert.Error(t, err)
	assert.Equal(t, uint64(7), head)
}

func TestRunWatchLoopStreamsEvents(t *testing.T) {
	src := &fakeSource{head: 5, events: map[uint64]contract.CoffeeBought{6: coffeeAt(6, "gm")}}
	msgs := make(chan tea.Msg, 32)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runWatchLoop(ctx, src, 5*time.Millisecond, func(m tea.Msg) {
		select {
		case msgs <- m:
		default:
		}
	})

	first := <-msgs
	assert.Equal(t, ui.WatchStatusMsg{BlockNum: 5}, first)

	src.setHead(6)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-msgs:
			if ev, ok := m.(ui.WatchEventsMsg); ok {
				require.Len(t, ev.Events, 1)
				assert.Equal(t, "gm", ev.Events[0].Message)
				return
			}
		case <-deadline:
			t.Fatal("no events streamed")
		}
	}
}

func TestRunWatchLoopStartError(t *testing.T) {
	src := &fakeSource{headErr: errors.New("dial tcp: connection refused")}
	var got []tea.Msg
	runWatchLoop(context.Background(), src, time.Millisecond, func(m tea.Msg) { got = append(got, m) })

	require.Len(t, got, 1)
	status := got[0].(ui.WatchStatusMsg)
	assert.Contains(t, status.ErrMsg, "could not get starting block")
}

func TestTrimWatchErr(t *testing.T) {
	assert.Equal(t, "short", trimWatchErr("short"))
	assert.Equal(t, "first line", trimWatchErr("first line\nsecond"))

	long := trimWatchErr(string(make([]byte, 200)))
	assert.Len(t, long, 80)
}

func TestNamedApprover(t *testing.T) {
	candidates := []*wallet.Wallet{{Name: "alice"}, {Name: "bob"}}

	name, err := namedApprover("bob")(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	_, err = namedApprover("carol")(context.Background(), candidates)
	assert.Error(t, err)
}

func TestTotalRaised(t *testing.T) {
	sum := totalRaised([]contract.Contribution{
		{Amount: big.NewInt(1e15)},
		{Amount: big.NewInt(2e15)},
		{},
	})
	assert.Equal(t, "0.003", chain.FormatEther(sum))
}

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	require.NoError(t, err)
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", addr.Hex())

	_, err = parseAddress("not-an-address")
	assert.Error(t, err)
}

func TestWalletTypeLabel(t *testing.T) {
	assert.Equal(t, "read-write", walletTypeLabel(wallet.TypeSigning))
	assert.Equal(t, "watch-only", walletTypeLabel(wallet.TypeWatchOnly))
}

func TestPersistGrant(t *testing.T) {
	c := withConfig(t)

	require.NoError(t, persistGrant("alice"))
	reloaded, err := config.Load(c.Dir())
	require.NoError(t, err)
	assert.Equal(t, "alice", reloaded.Connected)

	require.NoError(t, persistGrant(""))
	reloaded, err = config.Load(c.Dir())
	require.NoError(t, err)
	assert.Empty(t, reloaded.Connected)
}

func TestNetworkArgDefaultsToActive(t *testing.T) {
	withConfig(t)
	cfg.Network = "anvil"

	n, err := networkArg(nil)
	require.NoError(t, err)
	assert.Equal(t, "anvil", n.Name)

	n, err = networkArg([]string{"somnia-testnet"})
	require.NoError(t, err)
	assert.Equal(t, int64(50312), n.ChainID)

	_, err = networkArg([]string{"nope"})
	assert.Error(t, err)
}

func TestSwitchableNetworksNeedAContract(t *testing.T) {
	withConfig(t)
	reg := chain.NewRegistry()

	names := func() []string {
		var out []string
		for _, n := range switchableNetworks(reg) {
			out = append(out, n.Name)
		}
		return out
	}
	assert.Equal(t, []string{"somnia-testnet"}, names())

	require.NoError(t, cfg.SetContract("anvil", "0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	assert.Equal(t, []string{"anvil", "somnia-testnet"}, names())
}

func TestResolveTargetUsesEnvRPC(t *testing.T) {
	withConfig(t)
	t.Setenv(config.EnvNetwork, "")
	t.Setenv(config.EnvContract, "")
	t.Setenv(config.EnvRPCURL, "http://127.0.0.1:1")

	tg, err := resolveTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1", tg.URL)
	assert.Equal(t, "somnia-testnet", tg.Network.Name)
	assert.Equal(t, common.HexToAddress("0x392a0124ffcFeaA44E082E47093945085cD85500"), tg.Contract)
}

func TestResolveTargetWithoutContract(t *testing.T) {
	withConfig(t)
	cfg.Network = "anvil"
	t.Setenv(config.EnvNetwork, "")
	t.Setenv(config.EnvContract, "")

	_, err := resolveTarget(context.Background())
	assert.ErrorIs(t, err, config.ErrNoContract)
}

func TestSwitchNetworkBeatsOverride(t *testing.T) {
	c := withConfig(t)
	t.Setenv(config.EnvNetwork, "somnia-testnet")
	t.Setenv(config.EnvContract, "")
	require.NoError(t, c.SetContract("anvil", "0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	c.OverrideNetwork(config.NetworkOverride(""))

	reg := chain.NewRegistry()
	require.NoError(t, switchNetwork(reg, 31337))

	tg, err := c.Target(reg)
	require.NoError(t, err)
	assert.Equal(t, "anvil", tg.Network.Name)

	reloaded, err := config.Load(c.Dir())
	require.NoError(t, err)
	assert.Equal(t, "anvil", reloaded.Network)

	assert.Error(t, switchNetwork(reg, 999999))
}
