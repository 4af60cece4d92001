package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Approver is asked which wallet to expose when the app requests
// permissions. Returning "" rejects the request.
type Approver func(ctx context.Context, candidates []*Wallet) (string, error)

// AutoApprove picks the default wallet, or the first candidate.
func AutoApprove(mgr *Manager) Approver {
	return func(_ context.Context, candidates []*Wallet) (string, error) {
		if d := mgr.Default(); d != nil && d.CanSign() {
			return d.Name, nil
		}
		if len(candidates) == 0 {
			return "", nil
		}
		return candidates[0].Name, nil
	}
}

// Agent is the local wallet provider: signing wallets from a Manager
// exposed through the Provider interface.
type Agent struct {
	mgr     *Manager
	approve Approver

	mu      sync.Mutex
	granted bool
	active  string
	chainID int64
	subs    map[int]chan Event
	nextSub int
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithApprover sets the permission prompt.
func WithApprover(fn Approver) AgentOption {
	return func(a *Agent) { a.approve = fn }
}

// WithGrant restores a grant from a previous run.
func WithGrant(name string) AgentOption {
	return func(a *Agent) {
		if name != "" {
			a.granted = true
			a.active = name
		}
	}
}

// NewAgent creates an agent on chainID.
func NewAgent(mgr *Manager, chainID int64, opts ...AgentOption) *Agent {
	a := &Agent{
		mgr:     mgr,
		chainID: chainID,
		subs:    make(map[int]chan Event),
	}
	a.approve = AutoApprove(mgr)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Granted returns the wallet the app was granted, or "".
func (a *Agent) Granted() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.granted {
		return ""
	}
	return a.active
}

// RequestPermissions asks the approver which wallet to expose. An existing
// grant on a signing wallet is kept without asking again.
func (a *Agent) RequestPermissions(ctx context.Context) error {
	candidates := a.signingWallets()
	a.mu.Lock()
	granted, active := a.granted, a.active
	a.mu.Unlock()
	if granted && active != "" {
		for _, w := range candidates {
			if w.Name == active {
				return nil
			}
		}
	}
	if len(candidates) == 0 {
		// Nothing to expose; the grant holds no accounts.
		a.mu.Lock()
		a.granted, a.active = true, ""
		a.mu.Unlock()
		return nil
	}

	name, err := a.approve(ctx, candidates)
	if err != nil {
		return err
	}
	if name == "" {
		return ErrUserRejected
	}
	if _, err := a.mgr.Get(name); err != nil {
		return err
	}

	a.mu.Lock()
	a.granted, a.active = true, name
	a.mu.Unlock()
	return nil
}

func (a *Agent) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	a.mu.Lock()
	granted := a.granted
	a.mu.Unlock()
	if !granted {
		if err := a.RequestPermissions(ctx); err != nil {
			return nil, err
		}
	}
	return a.Accounts(ctx)
}

func (a *Agent) Accounts(_ context.Context) ([]common.Address, error) {
	a.mu.Lock()
	granted, active := a.granted, a.active
	a.mu.Unlock()
	if !granted || active == "" {
		return nil, nil
	}
	w, err := a.mgr.Get(active)
	if err != nil {
		return nil, nil
	}
	return []common.Address{common.HexToAddress(w.Address)}, nil
}

func (a *Agent) Signer(_ context.Context) (Signer, error) {
	a.mu.Lock()
	active := a.active
	a.mu.Unlock()
	if active == "" {
		return nil, ErrNoAccount
	}
	w, err := a.mgr.Get(active)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(w, a.mgr.KeyStore())
}

func (a *Agent) ChainID(_ context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chainID, nil
}

func (a *Agent) Subscribe() (<-chan Event, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	ch := make(chan Event, 16)
	a.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if c, ok := a.subs[id]; ok {
				delete(a.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// SelectAccount switches the active wallet. A granted app is told through
// AccountsChanged.
func (a *Agent) SelectAccount(name string) error {
	w, err := a.mgr.Get(name)
	if err != nil {
		return err
	}
	if !w.CanSign() {
		return fmt.Errorf("%w: %s", ErrWatchOnly, name)
	}

	a.mu.Lock()
	a.active = name
	granted := a.granted
	a.mu.Unlock()

	if granted {
		a.emit(Event{Kind: AccountsChanged, Accounts: []common.Address{common.HexToAddress(w.Address)}})
	}
	return nil
}

// Revoke withdraws the app's permission; it sees an empty account list.
func (a *Agent) Revoke() {
	a.mu.Lock()
	was := a.granted
	a.granted = false
	a.mu.Unlock()
	if was {
		a.emit(Event{Kind: AccountsChanged, Accounts: []common.Address{}})
	}
}

// SwitchNetwork moves the agent to another chain.
func (a *Agent) SwitchNetwork(chainID int64) {
	a.mu.Lock()
	changed := a.chainID != chainID
	a.chainID = chainID
	a.mu.Unlock()
	if changed {
		a.emit(Event{Kind: ChainChanged, ChainID: chainID})
	}
}

// Close emits Disconnect and ends every subscription.
func (a *Agent) Close() {
	a.emit(Event{Kind: Disconnected})
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, ch := range a.subs {
		delete(a.subs, id)
		close(ch)
	}
}

// emit never blocks; a subscriber that stops reading misses events.
func (a *Agent) emit(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (a *Agent) signingWallets() []*Wallet {
	var out []*Wallet
	for _, w := range a.mgr.List() {
		if w.CanSign() {
			out = append(out, w)
		}
	}
	return out
}

var _ Provider = (*Agent)(nil)
