package config

import (
	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/ethereum/go-ethereum/common"
)

// Config holds all coffee configuration.
type Config struct {
	Network        string              `json:"network"`
	DefaultWallet  string              `json:"default_wallet"`
	Connected      string              `json:"connected,omitempty"` // wallet granted to the app
	RPCAlgorithm   string              `json:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	CustomRPCs     map[string][]string `json:"custom_rpcs"`
	Contracts      map[string]string   `json:"contracts"` // per-network contract override
	DefaultAmount  string              `json:"default_amount"`
	ConfirmTimeout int                 `json:"confirm_timeout"` // seconds
	WatchInterval  int                 `json:"watch_interval"`  // seconds

	// internal: config dir path used for Save()
	configDir string

	// network for this invocation only (--network / COFFEE_NETWORK)
	networkOverride string
}

// Target is the fully resolved network, endpoints and contract for one run.
type Target struct {
	Network  *chain.Network
	RPCs     []string
	Contract common.Address
}
