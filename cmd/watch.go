package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream new coffees live",
	Long: `Watch the contract for CoffeeBought events in real time.

Polls the chain every watch_interval seconds (default 5) and streams new
purchases into a live table. No WebSocket required; works with all public
HTTP RPCs.

Keyboard controls:
  ↑↓ / j k   navigate rows
  o           open selected tx in explorer
  q           quit

Examples:
  coffee watch
  coffee watch --network anvil`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		t, err := resolveTarget(ctx)
		if err != nil {
			return err
		}
		c, err := contract.DialReadOnly(ctx, t.URL, t.Contract)
		if err != nil {
			return err
		}
		defer c.Close()

		m := ui.WatchModel{Network: *t.Network, Contract: t.Contract.Hex()}
		prog := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

		go runWatchLoop(ctx, c, cfg.WatchEvery(), prog.Send)

		_, err = prog.Run()
		return err
	},
}

// eventSource is the part of the contract handle the watch loop polls.
type eventSource interface {
	LatestBlock(ctx context.Context) (uint64, error)
	FilterCoffeeBought(ctx context.Context, from uint64, to *uint64) ([]contract.CoffeeBought, error)
}

// runWatchLoop anchors at the current head and then reports every new
// CoffeeBought event until ctx ends.
func runWatchLoop(ctx context.Context, src eventSource, every time.Duration, send func(tea.Msg)) {
	// Anchor to current block so we don't replay history.
	last, err := src.LatestBlock(ctx)
	if err != nil {
		send(ui.WatchStatusMsg{ErrMsg: "could not get starting block: " + trimWatchErr(err.Error())})
		return
	}
	send(ui.WatchStatusMsg{BlockNum: last})

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		events, head, err := pollCoffees(ctx, src, last)
		if err != nil {
			send(ui.WatchStatusMsg{BlockNum: last, ErrMsg: trimWatchErr(err.Error())})
			continue
		}
		if len(events) > 0 {
			send(ui.WatchEventsMsg{Events: events})
		}
		last = head
		send(ui.WatchStatusMsg{BlockNum: last})
	}
}

// pollCoffees returns the events mined after block last and the new head.
// The head is unchanged when no block was mined.
func pollCoffees(ctx context.Context, src eventSource, last uint64) ([]contract.CoffeeBought, uint64, error) {
	head, err := src.LatestBlock(ctx)
	if err != nil {
		return nil, last, err
	}
	if head <= last {
		return nil, last, nil
	}
	events, err := src.FilterCoffeeBought(ctx, last+1, &head)
	if err != nil {
		return nil, last, err
	}
	return events, head, nil
}

// trimWatchErr keeps the status bar to one readable line.
func trimWatchErr(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
