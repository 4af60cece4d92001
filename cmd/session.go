package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/connect"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/Mohsinsiddi/coffee/internal/rpc"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	"github.com/Mohsinsiddi/coffee/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// target is the resolved network, the RPC URL picked for it and the
// contract address.
type target struct {
	*config.Target
	URL string
}

// resolveTarget resolves the active network and picks an RPC for it.
func resolveTarget(ctx context.Context) (*target, error) {
	t, err := cfg.Target(chain.NewRegistry())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()

	url, err := rpc.SelectBest(ctx, t.RPCs, cfg.RPCAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w — add one with `coffee config set-rpc %s <url>`", t.Network.Name, err, t.Network.Name)
	}
	log.Debug().Str("network", t.Network.Name).Str("rpc", url).Str("contract", t.Contract.Hex()).Msg("target resolved")
	return &target{Target: t, URL: url}, nil
}

// newWalletManager creates a Manager backed by the config-dir JSON store and
// the OS keychain.
func newWalletManager() (*wallet.Manager, error) {
	keys, err := wallet.OpenKeychain(cfg.Dir(), wallet.NewSessionCache(wallet.DefaultSessionPath()))
	if err != nil {
		return nil, err
	}
	store := wallet.NewJSONStore(filepath.Join(cfg.Dir(), "wallets.json"))
	return wallet.NewManager(wallet.WithStore(store), wallet.WithKeyStore(keys)), nil
}

// newAgent builds the wallet provider. The grant of a previous `connect`
// is restored from config unless the user is asked again; --wallet
// pre-approves that wallet.
func newAgent(mgr *wallet.Manager, chainID int64, interactive bool) *wallet.Agent {
	grant := cfg.Connected
	if interactive || (walletFlag != "" && grant != walletFlag) {
		grant = ""
	}
	opts := []wallet.AgentOption{wallet.WithGrant(grant)}
	switch {
	case walletFlag != "":
		opts = append(opts, wallet.WithApprover(namedApprover(walletFlag)))
	case interactive:
		opts = append(opts, wallet.WithApprover(pickApprover(mgr)))
	}
	return wallet.NewAgent(mgr, chainID, opts...)
}

// namedApprover grants access to one wallet and rejects everything else.
func namedApprover(name string) wallet.Approver {
	return func(_ context.Context, candidates []*wallet.Wallet) (string, error) {
		for _, w := range candidates {
			if w.Name == name {
				return name, nil
			}
		}
		return "", fmt.Errorf("wallet %q is not a signing wallet — run `coffee wallet list`", name)
	}
}

// pickApprover asks the user which wallet to connect. A single candidate
// is approved without asking.
func pickApprover(mgr *wallet.Manager) wallet.Approver {
	return func(_ context.Context, candidates []*wallet.Wallet) (string, error) {
		if len(candidates) == 1 {
			return candidates[0].Name, nil
		}
		items := make([]ui.PickerItem, len(candidates))
		for i, w := range candidates {
			items[i] = ui.PickerItem{Label: w.Name, SubLabel: ui.TruncateAddr(w.Address), Value: w.Name}
		}
		preselect := ""
		if d := mgr.Default(); d != nil {
			preselect = d.Name
		}
		return ui.PickItem("Connect Wallet  ·  select an account", items, preselect)
	}
}

// newBinder dials a Transactor for every signer the session binds.
func newBinder(t *target, onSent func(*types.Transaction)) connect.Binder {
	return func(ctx context.Context, signer wallet.Signer) (connect.Writer, error) {
		opts := []contract.TransactorOption{
			contract.WithPollInterval(config.ReceiptPollInterval),
			contract.WithLogger(log),
		}
		if onSent != nil {
			opts = append(opts, contract.WithSentHook(onSent))
		}
		tr, err := contract.DialTransactor(ctx, t.URL, t.Contract, signer, opts...)
		if err != nil {
			return nil, err
		}
		return tr, nil
	}
}

// app bundles everything one command needs to talk to the contract.
type app struct {
	target  *target
	mgr     *wallet.Manager
	agent   *wallet.Agent
	reader  *contract.Contract
	session *connect.Session

	// onSent runs once a transaction is broadcast, before it is mined.
	onSent func(tx *types.Transaction)
}

// Close releases the read connection and ends provider subscriptions.
func (a *app) Close() {
	a.agent.Close()
	a.reader.Close()
}

// newApp resolves the target, opens the read handle and builds a session
// over the wallet agent.
func newApp(ctx context.Context, notify connect.Notifier, interactive bool, opts ...connect.Option) (*app, error) {
	t, err := resolveTarget(ctx)
	if err != nil {
		return nil, err
	}
	mgr, err := newWalletManager()
	if err != nil {
		return nil, err
	}
	reader, err := contract.DialReadOnly(ctx, t.URL, t.Contract)
	if err != nil {
		return nil, err
	}

	a := &app{target: t, mgr: mgr, reader: reader}
	a.agent = newAgent(mgr, t.Network.ChainID, interactive)
	onSent := func(tx *types.Transaction) {
		log.Info().Str("tx", tx.Hash().Hex()).Msg("transaction submitted")
		if a.onSent != nil {
			a.onSent(tx)
		}
	}
	opts = append([]connect.Option{connect.WithLogger(log)}, opts...)
	a.session = connect.New(a.agent, reader, newBinder(t, onSent), notify, opts...)
	return a, nil
}

// persistGrant remembers which wallet the app may use without prompting.
func persistGrant(name string) error {
	if cfg.Connected == name {
		return nil
	}
	cfg.Connected = name
	return cfg.Save()
}

// parseAddress validates a hex address argument.
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// connected restores the session and connects it if nothing was restored.
func connected(ctx context.Context, a *app) error {
	a.session.Restore(ctx)
	if a.session.State().IsConnected {
		return nil
	}
	if err := a.session.Connect(ctx); err != nil {
		return err
	}
	if !a.session.State().IsConnected {
		return connect.ErrNotConnected
	}
	return persistGrant(a.agent.Granted())
}
