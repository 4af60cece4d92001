package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "", Width: 2},
			{Title: "Name", Width: 16},
			{Title: "Display", Width: 18},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 8},
			{Title: "Contract", Width: 44},
		})

		for _, n := range reg.All() {
			active := ""
			if n.Name == cfg.ActiveNetwork() {
				active = ui.StyleSuccess.Render("▸")
			}
			contractAddr := n.ContractAddress
			if override := cfg.Contracts[n.Name]; override != "" {
				contractAddr = override
			}
			if contractAddr == "" {
				contractAddr = ui.Meta("—")
			} else {
				contractAddr = ui.Addr(contractAddr)
			}
			t.AddRow(ui.Row{
				active,
				ui.ChainName(n.Name),
				n.DisplayName,
				fmt.Sprintf("%d", n.ChainID),
				n.NativeCurrency,
				contractAddr,
			})
		}

		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d networks total", len(reg.All()))))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config.

Examples:
  coffee network use somnia-testnet
  coffee network use anvil`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := chain.NewRegistry().Get(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q — run `coffee network list` to see all networks", args[0])
		}

		cfg.Network = n.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %s", ui.ChainName(n.Name))))
		if n.ContractAddress == "" && cfg.Contracts[n.Name] == "" {
			fmt.Println(ui.Hint(fmt.Sprintf("No contract known for %s. Set one with: coffee config set-contract %s <address>", n.Name, n.Name)))
		}
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
