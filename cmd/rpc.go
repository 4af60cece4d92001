package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/rpc"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	"github.com/spf13/cobra"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage RPC endpoints",
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <network> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, url := args[0], args[1]
		if err := cfg.RemoveRPC(network, url); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", network, url)))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list [network]",
	Short: "List all RPCs for a network",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := networkArg(args)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", ui.StyleTitle.Render(fmt.Sprintf("RPCs for %s", n.DisplayName)))
		if custom := cfg.CustomRPCs[n.Name]; len(custom) > 0 {
			fmt.Println(ui.StyleHeader.Render("Custom RPCs:"))
			for _, r := range custom {
				fmt.Printf("  %s\n", r)
			}
		}
		fmt.Println(ui.StyleHeader.Render("Built-in RPCs:"))
		for _, r := range n.RPCs {
			fmt.Printf("  %s\n", r)
		}
		return nil
	},
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark [network]",
	Short: "Benchmark all RPCs for a network and show which one is picked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := networkArg(args)
		if err != nil {
			return err
		}
		urls := append(append([]string(nil), cfg.CustomRPCs[n.Name]...), n.RPCs...)

		fmt.Printf("%s\n\n", ui.StyleTitle.Render(fmt.Sprintf("Benchmarking %s RPCs...", n.DisplayName)))

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()

		results := rpc.ProbeAll(ctx, urls)

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 40},
			{Title: "Latency", Width: 12},
			{Title: "Block #", Width: 12},
			{Title: "Status", Width: 10},
		})
		for _, r := range results {
			status := ui.Success("healthy")
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			if !r.Healthy() {
				status = ui.Err("down")
				latency = "—"
				block = "—"
			}
			t.AddRow(ui.Row{r.URL, latency, block, status})
		}
		fmt.Println(t.Render())

		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}
		best, err := rpc.NewPicker(algo).Pick(results)
		if err != nil {
			fmt.Println(ui.Err(err.Error()))
			return nil
		}
		fmt.Println(ui.Meta(fmt.Sprintf("%s picks: ", cfg.RPCAlgorithm)) + best.URL)
		return nil
	},
}

var rpcAlgorithmCmd = &cobra.Command{
	Use:   "algorithm",
	Short: "Manage the RPC selection algorithm",
}

var rpcAlgorithmSetCmd = &cobra.Command{
	Use:   "set <fastest|round-robin|failover>",
	Short: "Set the RPC selection algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := rpc.ParseAlgorithm(args[0]); err != nil {
			return err
		}
		cfg.RPCAlgorithm = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC algorithm set to %q", args[0])))
		return nil
	},
}

// networkArg resolves an optional network argument, defaulting to the
// active network.
func networkArg(args []string) (*chain.Network, error) {
	name := cfg.ActiveNetwork()
	if len(args) > 0 {
		name = args[0]
	}
	n, err := chain.NewRegistry().Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q — run `coffee network list` to see all networks", name)
	}
	return n, nil
}

func init() {
	rpcAlgorithmCmd.AddCommand(rpcAlgorithmSetCmd)
	rpcCmd.AddCommand(rpcListCmd, rpcRemoveCmd, rpcBenchmarkCmd, rpcAlgorithmCmd)
}
