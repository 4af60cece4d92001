package chain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// DefaultNetwork is the network used when nothing is configured.
const DefaultNetwork = "somnia-testnet"

// Network holds everything needed to talk to one EVM chain.
type Network struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	ChainID         int64    `json:"chain_id"`
	NativeCurrency  string   `json:"native_currency"`
	RPCs            []string `json:"rpcs"`
	Explorer        string   `json:"explorer"`
	ContractAddress string   `json:"contract_address"` // deployed coffee contract, empty if none
}

// Registry is the network registry.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry returns the built-in networks.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// All returns every network sorted by name.
func (r *Registry) All() []Network {
	out := make([]Network, len(r.networks))
	copy(out, r.networks)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get finds a network by slug (e.g. "somnia-testnet").
func (r *Registry) Get(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	cp := *n
	cp.RPCs = append([]string(nil), n.RPCs...)
	return &cp, nil
}

// GetByChainID finds a network by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return r.Get(n.Name)
}

// AddressURL links to an address on the network's explorer.
func (n *Network) AddressURL(addr string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/address/" + addr
}

// TxURL links to a transaction on the network's explorer.
func (n *Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/tx/" + hash
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			Name: "somnia-testnet", DisplayName: "Somnia Testnet", ChainID: 50312,
			NativeCurrency:  "STT",
			RPCs:            []string{"https://dream-rpc.somnia.network"},
			Explorer:        "https://explorer.somnia.network",
			ContractAddress: "0x392a0124ffcFeaA44E082E47093945085cD85500",
		},
		{
			Name: "anvil", DisplayName: "Anvil (local)", ChainID: 31337,
			NativeCurrency: "ETH",
			RPCs:           []string{"http://127.0.0.1:8545"},
		},
	}
}
