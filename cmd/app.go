package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/connect"
	"github.com/Mohsinsiddi/coffee/internal/ui"
	"github.com/Mohsinsiddi/coffee/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
)

// runApp runs the widget until the user quits. A network switch in the
// wallet rebuilds the widget for the new chain.
func runApp(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reg := chain.NewRegistry()
	fmt.Println(ui.Banner(Version))

	for {
		chainID, err := runWidget(ctx, reg)
		if err != nil {
			return err
		}
		if chainID == 0 {
			return nil
		}

		if err := switchNetwork(reg, chainID); err != nil {
			return err
		}
	}
}

// switchNetwork saves the chain the wallet moved to as the active network.
// Any --network or COFFEE_NETWORK override is dropped so the reload uses it.
func switchNetwork(reg *chain.Registry, chainID int64) error {
	n, err := reg.GetByChainID(chainID)
	if err != nil {
		return fmt.Errorf("wallet switched to unsupported chain %d", chainID)
	}
	cfg.Network = n.Name
	cfg.OverrideNetwork("")
	if err := cfg.Save(); err != nil {
		return err
	}
	log.Debug().Str("network", n.Name).Msg("reloading for new network")
	return nil
}

// runWidget runs one widget instance and returns the chain to reload for,
// or 0 when the user quit.
func runWidget(ctx context.Context, reg *chain.Registry) (int64, error) {
	var prog *tea.Program
	notify := connect.NotifierFunc(func(n connect.Notification) {
		prog.Send(ui.ToastMsg(n))
	})
	reload := connect.WithReload(func(chainID int64) {
		prog.Send(ui.ReloadMsg{ChainID: chainID})
	})

	a, err := newApp(ctx, notify, false, reload)
	if err != nil {
		return 0, err
	}
	defer a.Close()

	model := ui.NewAppModel(ctx, a.session, ui.AppOptions{
		Network:  *a.target.Network,
		Contract: a.target.Contract,
		Networks: switchableNetworks(reg),
		Accounts: signingWalletNames(a.mgr),
		Amount:   cfg.DefaultAmount,
		Switcher: a.agent,
	})
	prog = tea.NewProgram(model, tea.WithContext(ctx))

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := a.session.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			log.Debug().Err(err).Msg("provider watch ended")
		}
	}()

	final, err := prog.Run()
	if err != nil {
		return 0, fmt.Errorf("widget: %w", err)
	}
	m := final.(ui.AppModel)

	grant := ""
	if m.ReloadChainID() != 0 || a.session.State().IsConnected {
		grant = a.agent.Granted()
	}
	if err := persistGrant(grant); err != nil {
		return 0, err
	}
	return m.ReloadChainID(), nil
}

// switchableNetworks lists the networks that have a contract to talk to.
func switchableNetworks(reg *chain.Registry) []chain.Network {
	var out []chain.Network
	for _, n := range reg.All() {
		if n.ContractAddress != "" || cfg.Contracts[n.Name] != "" {
			out = append(out, n)
		}
	}
	return out
}

// signingWalletNames lists wallets that can be connected.
func signingWalletNames(mgr *wallet.Manager) []string {
	var names []string
	for _, w := range mgr.List() {
		if w.CanSign() {
			names = append(names, w.Name)
		}
	}
	return names
}
