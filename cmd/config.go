package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <network> <url>",
	Short: "Add a custom RPC for a network (tried before the built-in ones)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := chain.NewRegistry().Get(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q", args[0])
		}
		if err := cfg.AddRPC(n.Name, args[1]); err != nil {
			// Already exists; not fatal.
			fmt.Println(ui.Warn(err.Error()))
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC for %s set to %s", ui.ChainName(n.Name), args[1])))
		return nil
	},
}

var configSetContractCmd = &cobra.Command{
	Use:   "set-contract <network> <address>",
	Short: "Point a network at a coffee contract",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := chain.NewRegistry().Get(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q", args[0])
		}
		if err := cfg.SetContract(n.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Contract for %s set to %s", ui.ChainName(n.Name), ui.Addr(cfg.Contracts[n.Name]))))
		return nil
	},
}

var configSetAmountCmd = &cobra.Command{
	Use:   "set-amount <amount>",
	Short: "Set the default coffee amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wei, err := chain.ParseEther(args[0])
		if err != nil {
			return err
		}
		minWei, _ := chain.ParseEther(config.MinAmount)
		if wei.Cmp(minWei) < 0 {
			return fmt.Errorf("amount must be at least %s", config.MinAmount)
		}
		cfg.DefaultAmount = chain.FormatEther(wei)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default amount set to %s", ui.Val(cfg.DefaultAmount))))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configSetRPCCmd, configSetContractCmd, configSetAmountCmd)
}
