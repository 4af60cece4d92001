package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Environment overrides, applied per invocation and never persisted.
const (
	EnvConfigDir = "COFFEE_CONFIG_DIR"
	EnvNetwork   = "COFFEE_NETWORK"
	EnvRPCURL    = "COFFEE_RPC_URL"
	EnvContract  = "COFFEE_CONTRACT"
)

// ErrNoContract is returned when no contract address is known for a network.
var ErrNoContract = errors.New("no contract address configured")

const (
	defaultAlgorithm      = "fastest"
	defaultConfirmTimeout = 180
	defaultWatchInterval  = 5

	configFile = "config.json"
	envFile    = ".env"
)

// DefaultDir returns ~/.coffee.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".coffee"), nil
}

// ResolveDir picks the config dir: an explicit dir, then COFFEE_CONFIG_DIR,
// then ~/.coffee.
func ResolveDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfigDir)); env != "" {
		return env, nil
	}
	return DefaultDir()
}

// Load reads config from dir (or creates defaults). dir defaults to ~/.coffee.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if cfg.Contracts == nil {
		cfg.Contracts = make(map[string]string)
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory, resolves the config dir
// (see ResolveDir) and then loads the .env found there. It returns the
// resolved dir. Variables already set in the process win; missing files
// are ignored.
func LoadDotEnv(dir string) (string, error) {
	if err := loadEnvFile(envFile); err != nil {
		return "", err
	}
	dir, err := ResolveDir(dir)
	if err != nil {
		return "", err
	}
	if err := loadEnvFile(filepath.Join(dir, envFile)); err != nil {
		return "", err
	}
	return dir, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// NetworkOverride returns the network chosen for this invocation only:
// the --network flag, else COFFEE_NETWORK, else "".
func NetworkOverride(flag string) string {
	if flag != "" {
		return flag
	}
	return strings.TrimSpace(os.Getenv(EnvNetwork))
}

// OverrideNetwork selects a network for this run without persisting it.
// An empty name clears the override.
func (c *Config) OverrideNetwork(name string) {
	c.networkOverride = name
}

// ActiveNetwork is the override when set, else the saved network.
func (c *Config) ActiveNetwork() string {
	if c.networkOverride != "" {
		return c.networkOverride
	}
	if c.Network != "" {
		return c.Network
	}
	return chain.DefaultNetwork
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// AddRPC adds a custom RPC URL for a network.
func (c *Config) AddRPC(network, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[network], url) {
		return fmt.Errorf("RPC %s already exists for network %s", url, network)
	}
	c.CustomRPCs[network] = append(c.CustomRPCs[network], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a network.
func (c *Config) RemoveRPC(network, url string) error {
	rpcs := c.CustomRPCs[network]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for network %s", url, network)
	}
	c.CustomRPCs[network] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// SetContract overrides the contract address for a network.
func (c *Config) SetContract(network, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid contract address %q", address)
	}
	if c.Contracts == nil {
		c.Contracts = make(map[string]string)
	}
	c.Contracts[network] = common.HexToAddress(address).Hex()
	return nil
}

// ConfirmWait is how long a submitted transaction may take to be mined.
func (c *Config) ConfirmWait() time.Duration {
	if c.ConfirmTimeout <= 0 {
		return defaultConfirmTimeout * time.Second
	}
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// WatchEvery is the polling interval of `coffee watch`.
func (c *Config) WatchEvery() time.Duration {
	if c.WatchInterval <= 0 {
		return defaultWatchInterval * time.Second
	}
	return time.Duration(c.WatchInterval) * time.Second
}

// Target resolves the active network, its RPC list (custom first, then the
// built-in ones) and the contract address. RPC and contract environment
// overrides apply last.
func (c *Config) Target(reg *chain.Registry) (*Target, error) {
	name := c.ActiveNetwork()

	n, err := reg.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q: %w", name, err)
	}

	rpcs := append(slices.Clone(c.CustomRPCs[n.Name]), n.RPCs...)
	if env := strings.TrimSpace(os.Getenv(EnvRPCURL)); env != "" {
		rpcs = []string{env}
	}

	addr := n.ContractAddress
	if override, ok := c.Contracts[n.Name]; ok && override != "" {
		addr = override
	}
	if env := strings.TrimSpace(os.Getenv(EnvContract)); env != "" {
		addr = env
	}
	if addr == "" {
		return nil, fmt.Errorf("%w for %s — set one with `coffee config set-contract`", ErrNoContract, n.Name)
	}
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid contract address %q", addr)
	}

	return &Target{
		Network:  n,
		RPCs:     rpcs,
		Contract: common.HexToAddress(addr),
	}, nil
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		Network:        chain.DefaultNetwork,
		RPCAlgorithm:   defaultAlgorithm,
		CustomRPCs:     make(map[string][]string),
		Contracts:      make(map[string]string),
		DefaultAmount:  MinAmount,
		ConfirmTimeout: defaultConfirmTimeout,
		WatchInterval:  defaultWatchInterval,
		configDir:      dir,
	}
}
