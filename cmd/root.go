package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/coffee/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir      string
	cfg         *config.Config
	verbose     bool
	networkFlag string
	walletFlag  string
	log         = zerolog.Nop()
)

// rootCmd is the top-level command. Without a sub-command it opens the
// donation widget.
var rootCmd = &cobra.Command{
	Use:   "coffee",
	Short: "Buy me a coffee, on-chain",
	Long: `coffee lets you send a small tip with a message to a creator's
contract and browse everyone who bought them a coffee.

Run without arguments to open the interactive widget. Contributions are
read straight from the contract; nothing is stored off-chain.

Global flag --network picks the network for a single invocation.
Persist it with: coffee network use <name>`,
	Version: Version,
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		dir, err := config.LoadDotEnv(cfgDir)
		if err != nil {
			return err
		}
		cfg, err = config.Load(dir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.OverrideNetwork(config.NetworkOverride(networkFlag))
		log = logging.New(os.Stderr, verbose, os.Getenv(logging.EnvLevel))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $COFFEE_CONFIG_DIR or ~/.coffee)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use for this invocation")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "wallet to connect (default: the default wallet)")

	// Register all sub-commands.
	rootCmd.AddCommand(
		feedCmd,
		buyCmd,
		connectCmd,
		disconnectCmd,
		watchCmd,
		ownerCmd,
		withdrawCmd,
		walletCmd,
		networkCmd,
		configCmd,
		rpcCmd,
	)
}
