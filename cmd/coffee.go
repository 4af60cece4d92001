package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/connect"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
)

var (
	feedLimit  int
	buyAmount  string
	confirmYes bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show everyone who bought a coffee, newest first",
	Long: `Read all contributions from the contract and print them newest first.

The feed is read through a direct RPC connection and needs no wallet.

Examples:
  coffee feed
  coffee feed --limit 10
  coffee feed --network anvil`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
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

		spin := ui.NewSpinner(os.Stderr, "Loading contributions…")
		spin.Start()
		contributions, err := c.GetContributions(ctx)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("%s: %w", connect.MsgLoadFailed, err)
		}

		feed := contract.NewestFirst(contributions)
		if feedLimit > 0 && len(feed) > feedLimit {
			feed = feed[:feedLimit]
		}

		fmt.Println(ui.KeyValueBlock("☕ Buy Me a Coffee", [][2]string{
			{"Network", t.Network.DisplayName},
			{"Contract", c.Address().Hex()},
			{"Coffees", fmt.Sprintf("%d", len(contributions))},
			{"Raised", chain.FormatEther(totalRaised(contributions)) + " " + t.Network.NativeCurrency},
		}))
		fmt.Println()
		fmt.Print(ui.RenderFeed(feed, t.Network.NativeCurrency))
		return nil
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy <message>",
	Short: "Buy a coffee with a message",
	Long: `Send --amount of the network's native currency with a message to the
contract. The command returns once the transaction is mined and then
prints the refreshed feed.

The wallet granted with 'coffee connect' is used; otherwise the default
signing wallet is connected.

Examples:
  coffee buy "Thanks for the great article!"
  coffee buy "Keep it up" --amount 0.01
  coffee buy "gm" --wallet alice`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		amount := buyAmount
		if amount == "" {
			amount = cfg.DefaultAmount
		}

		toaster := ui.NewToaster(os.Stdout)
		defer toaster.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout+cfg.ConfirmWait())
		defer cancel()

		a, err := newApp(ctx, toaster, false)
		if err != nil {
			return err
		}
		defer a.Close()
		a.onSent = func(tx *types.Transaction) {
			if url := a.target.Network.TxURL(tx.Hash().Hex()); url != "" {
				log.Info().Str("explorer", url).Msg("waiting for confirmation")
			}
		}

		if _, _, err := a.session.ValidatePurchase(message, amount); err != nil {
			return err
		}
		warnIfNoSession()
		if err := connected(ctx, a); err != nil {
			return err
		}
		if err := a.session.BuyCoffee(ctx, message, amount); err != nil {
			return err
		}

		feed := a.session.Contributions()
		if len(feed) > 5 {
			feed = feed[:5]
		}
		fmt.Println()
		fmt.Print(ui.RenderFeed(feed, a.target.Network.NativeCurrency))
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Grant a wallet to coffee",
	Long: `Choose which signing wallet coffee may use. The grant is remembered,
so later commands and the widget reconnect without asking.

Examples:
  coffee connect
  coffee connect --wallet alice`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		toaster := ui.NewToaster(os.Stdout)
		defer toaster.Close()

		a, err := newApp(cmd.Context(), toaster, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.session.Connect(cmd.Context()); err != nil {
			return err
		}
		if err := persistGrant(a.agent.Granted()); err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Connected", [][2]string{
			{"Wallet", a.agent.Granted()},
			{"Account", a.session.State().Account.Hex()},
			{"Network", a.target.Network.DisplayName},
		}))
		fmt.Println(ui.Hint("Forget this wallet with: coffee disconnect"))
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the granted wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Connected == "" {
			fmt.Println(ui.Meta("No wallet connected — nothing to do."))
			return nil
		}
		if err := persistGrant(""); err != nil {
			return err
		}
		fmt.Println(ui.Success(connect.MsgDisconnected))
		return nil
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Show the contract owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
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

		owner, err := c.Owner(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", ui.Meta("Owner:"), ui.Addr(owner.Hex()))
		if url := t.Network.AddressURL(owner.Hex()); url != "" {
			fmt.Println(ui.Meta(url))
		}
		return nil
	},
}

var ownerSetCmd = &cobra.Command{
	Use:   "set <address>",
	Short: "Transfer contract ownership (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		newOwner, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		if !confirmYes && !ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("Transfer ownership to %s?", newOwner.Hex())) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		return ownerTx(cmd.Context(), "Ownership transferred", func(ctx context.Context, a *app) (*types.Receipt, error) {
			return a.session.SetOwner(ctx, newOwner)
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the contract balance to the owner (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmYes && !ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(), "Withdraw all coffee funds?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		return ownerTx(cmd.Context(), "Funds withdrawn", func(ctx context.Context, a *app) (*types.Receipt, error) {
			return a.session.Withdraw(ctx)
		})
	},
}

// ownerTx connects the wallet, runs an owner-only call and reports the receipt.
func ownerTx(ctx context.Context, done string, call func(context.Context, *app) (*types.Receipt, error)) error {
	toaster := ui.NewToaster(os.Stdout)
	defer toaster.Close()

	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout+cfg.ConfirmWait())
	defer cancel()

	a, err := newApp(ctx, toaster, false)
	if err != nil {
		return err
	}
	defer a.Close()

	warnIfNoSession()
	if err := connected(ctx, a); err != nil {
		return err
	}

	spin := ui.NewSpinner(os.Stderr, "Waiting for confirmation…")
	spinning := false
	a.onSent = func(*types.Transaction) {
		spinning = true
		spin.Start()
	}
	receipt, err := call(ctx, a)
	if spinning {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	fmt.Println(ui.Success(done))
	fmt.Println(ui.KeyValueBlock("", [][2]string{
		{"Tx", receipt.TxHash.Hex()},
		{"Block", receipt.BlockNumber.String()},
		{"Gas used", fmt.Sprintf("%d", receipt.GasUsed)},
		{"Explorer", a.target.Network.TxURL(receipt.TxHash.Hex())},
	}))
	return nil
}

func totalRaised(contributions []contract.Contribution) *big.Int {
	sum := new(big.Int)
	for _, c := range contributions {
		if c.Amount != nil {
			sum.Add(sum, c.Amount)
		}
	}
	return sum
}

func init() {
	feedCmd.Flags().IntVar(&feedLimit, "limit", 0, "show only the newest N contributions")
	buyCmd.Flags().StringVarP(&buyAmount, "amount", "a", "", "amount in native currency (default: config default_amount)")
	ownerSetCmd.Flags().BoolVarP(&confirmYes, "yes", "y", false, "skip confirmation")
	withdrawCmd.Flags().BoolVarP(&confirmYes, "yes", "y", false, "skip confirmation")
	ownerCmd.AddCommand(ownerSetCmd)
}
