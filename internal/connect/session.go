// Package connect drives the wallet connection lifecycle and the purchase
// flow on top of a wallet provider and the coffee contract.
package connect

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/Mohsinsiddi/coffee/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// Errors.
var (
	ErrNoAccounts      = errors.New("no accounts found")
	ErrSignerMismatch  = errors.New("signer address mismatch")
	ErrNotConnected    = errors.New("wallet not connected")
	ErrAmountTooLow    = errors.New("amount below minimum")
	ErrReloadRequired  = errors.New("network changed, reload required")
	ErrWrongChain      = errors.New("wallet is on another chain")
	errConnectInFlight = errors.New("connect already in progress")
)

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ConnectionState is the single source of truth for the UI.
type ConnectionState struct {
	Account      common.Address
	IsConnected  bool
	IsConnecting bool
}

// State folds the flags into a lifecycle state.
func (c ConnectionState) State() State {
	switch {
	case c.IsConnecting:
		return Connecting
	case c.IsConnected:
		return Connected
	default:
		return Disconnected
	}
}

// Reader is the read path: a handle that needs no wallet.
type Reader interface {
	GetContributions(ctx context.Context) ([]contract.Contribution, error)
	Owner(ctx context.Context) (common.Address, error)
}

// Writer is a contract handle bound to a signer.
type Writer interface {
	BuyCoffee(ctx context.Context, message string, value *big.Int) (*types.Receipt, error)
	SetOwner(ctx context.Context, newOwner common.Address) (*types.Receipt, error)
	Withdraw(ctx context.Context) (*types.Receipt, error)
	ChainID() *big.Int
	Close()
}

// Binder produces a Writer for a signer.
type Binder func(ctx context.Context, signer wallet.Signer) (Writer, error)

// Session holds the connection state, the bound contract handle and the
// contribution feed. It is safe for concurrent use.
type Session struct {
	provider wallet.Provider
	reader   Reader
	bind     Binder
	notify   Notifier
	reload   func(chainID int64)
	log      zerolog.Logger
	minWei   *big.Int

	mu            sync.Mutex
	conn          ConnectionState
	writer        Writer
	contributions []contract.Contribution
	loading       bool
}

// Option configures a Session.
type Option func(*Session)

// WithReload is invoked after a network change has reset the session.
func WithReload(fn func(chainID int64)) Option {
	return func(s *Session) { s.reload = fn }
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates a disconnected session. provider may be nil when no wallet
// is available; the read path still works.
func New(provider wallet.Provider, reader Reader, bind Binder, notify Notifier, opts ...Option) *Session {
	minWei, _ := chain.ParseEther(config.MinAmount)
	s := &Session{
		provider: provider,
		reader:   reader,
		bind:     bind,
		notify:   notify,
		log:      zerolog.Nop(),
		minWei:   minWei,
	}
	if s.notify == nil {
		s.notify = NotifierFunc(func(Notification) {})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Contributions returns the feed, newest first.
func (s *Session) Contributions() []contract.Contribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]contract.Contribution, len(s.contributions))
	copy(out, s.contributions)
	return out
}

// Loading reports whether a feed fetch is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Connect runs the full connect flow. A call made while another connect is
// in flight returns immediately without side effects.
func (s *Session) Connect(ctx context.Context) error {
	err := s.connect(ctx, MsgConnected)
	if errors.Is(err, errConnectInFlight) {
		return nil
	}
	return err
}

func (s *Session) connect(ctx context.Context, successMsg string) error {
	s.mu.Lock()
	if s.conn.IsConnecting {
		s.mu.Unlock()
		return errConnectInFlight
	}
	s.conn.IsConnecting = true
	s.mu.Unlock()
	s.log.Debug().Msg("connecting wallet")

	w, account, err := s.connectWallet(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("connect failed")
		s.notify.Notify(Notification{Kind: Error, Message: userMessage(err, MsgConnectFailed)})
		s.mu.Lock()
		s.swapWriter(nil)
		s.conn = ConnectionState{}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.swapWriter(w)
	s.conn = ConnectionState{Account: account, IsConnected: true}
	s.mu.Unlock()

	s.log.Info().Str("account", account.Hex()).Msg("wallet connected")
	s.notify.Notify(Notification{Kind: Success, Message: successMsg})
	return nil
}

// connectWallet asks the provider for access and binds a contract handle
// to the signer it hands back. The handle must sign for the wallet's chain.
func (s *Session) connectWallet(ctx context.Context) (Writer, common.Address, error) {
	if s.provider == nil {
		return nil, common.Address{}, wallet.ErrNoProvider
	}
	if err := s.provider.RequestPermissions(ctx); err != nil {
		return nil, common.Address{}, err
	}
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, common.Address{}, err
	}
	if len(accounts) == 0 {
		return nil, common.Address{}, ErrNoAccounts
	}

	signer, err := s.provider.Signer(ctx)
	if err != nil {
		return nil, common.Address{}, err
	}
	if !strings.EqualFold(signer.Address().Hex(), accounts[0].Hex()) {
		return nil, common.Address{}, fmt.Errorf("%w: signer %s, account %s",
			ErrSignerMismatch, signer.Address().Hex(), accounts[0].Hex())
	}

	w, err := s.bind(ctx, signer)
	if err != nil {
		return nil, common.Address{}, err
	}
	walletChain, err := s.provider.ChainID(ctx)
	if err != nil {
		w.Close()
		return nil, common.Address{}, err
	}
	if w.ChainID().Cmp(big.NewInt(walletChain)) != 0 {
		w.Close()
		return nil, common.Address{}, fmt.Errorf("%w: wallet %d, contract %s", ErrWrongChain, walletChain, w.ChainID())
	}
	return w, accounts[0], nil
}

// Restore picks up a grant from a previous run without prompting. Any
// failure leaves the session disconnected and shows nothing.
func (s *Session) Restore(ctx context.Context) {
	if s.provider == nil {
		s.reset()
		return
	}
	accounts, err := s.provider.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		if err != nil {
			s.log.Debug().Err(err).Msg("restore failed")
		}
		s.reset()
		return
	}

	s.mu.Lock()
	s.conn = ConnectionState{Account: accounts[0], IsConnected: true}
	s.mu.Unlock()
	s.log.Debug().Str("account", accounts[0].Hex()).Msg("connection restored")
}

// Disconnect forgets the account and contract handle.
func (s *Session) Disconnect() {
	s.reset()
	s.notify.Notify(Notification{Kind: Success, Message: MsgDisconnected})
}

// reset drops the account and handle. An in-flight connect keeps its
// IsConnecting flag so no second flow starts alongside it.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapWriter(nil)
	s.conn = ConnectionState{IsConnecting: s.conn.IsConnecting}
}

// swapWriter must be called with mu held.
func (s *Session) swapWriter(w Writer) {
	if s.writer != nil {
		s.writer.Close()
	}
	s.writer = w
}

// HandleEvent reacts to a provider event.
func (s *Session) HandleEvent(ctx context.Context, ev wallet.Event) error {
	s.log.Debug().Stringer("event", ev.Kind).Msg("provider event")
	switch ev.Kind {
	case wallet.AccountsChanged:
		if len(ev.Accounts) == 0 {
			s.Disconnect()
			return nil
		}
		s.reset()
		err := s.connect(ctx, MsgSwitched)
		if errors.Is(err, errConnectInFlight) {
			return nil
		}
		return err
	case wallet.ChainChanged:
		s.reset()
		if s.reload == nil {
			return ErrReloadRequired
		}
		s.reload(ev.ChainID)
		return nil
	case wallet.Disconnected:
		s.Disconnect()
		return nil
	default:
		return nil
	}
}

// Watch feeds provider events into HandleEvent until ctx ends or the
// provider closes the subscription. It returns ErrReloadRequired when the
// network changed and no reload hook is set.
func (s *Session) Watch(ctx context.Context) error {
	if s.provider == nil {
		return wallet.ErrNoProvider
	}
	events, cancel := s.provider.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.HandleEvent(ctx, ev); errors.Is(err, ErrReloadRequired) {
				return err
			}
		}
	}
}

// LoadContributions re-fetches the whole list and stores it newest first.
// On failure the previous feed is kept.
func (s *Session) LoadContributions(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	list, err := s.reader.GetContributions(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.contributions = contract.NewestFirst(list)
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Msg("loading contributions")
		s.notify.Notify(Notification{Kind: Error, Message: MsgLoadFailed})
		return err
	}
	return nil
}

// ValidatePurchase checks the form input and returns the amount in wei.
func (s *Session) ValidatePurchase(message, amount string) (string, *big.Int, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", nil, contract.ErrEmptyMessage
	}
	value, err := chain.ParseEther(amount)
	if err != nil {
		return "", nil, err
	}
	if value.Cmp(s.minWei) < 0 {
		return "", nil, fmt.Errorf("%w: %s < %s", ErrAmountTooLow, chain.FormatEther(value), chain.FormatEther(s.minWei))
	}
	return message, value, nil
}

// BuyCoffee sends amount (decimal native units) with message and, once
// the transaction is mined, reloads the feed exactly once.
func (s *Session) BuyCoffee(ctx context.Context, message, amount string) error {
	if !s.State().IsConnected {
		s.notify.Notify(Notification{Kind: Error, Message: MsgConnectFirst})
		return ErrNotConnected
	}
	message, value, err := s.ValidatePurchase(message, amount)
	if err != nil {
		s.notify.Notify(Notification{Kind: Error, Message: userMessage(err, MsgPurchaseFailed)})
		return err
	}

	s.notify.Notify(Notification{ID: TxNotificationID, Kind: Loading, Message: MsgBuying})

	w, account, err := s.connectWallet(ctx)
	if err != nil {
		s.notify.Notify(Notification{ID: TxNotificationID, Kind: Error, Message: userMessage(err, MsgPurchaseFailed)})
		return err
	}
	s.mu.Lock()
	s.swapWriter(w)
	s.conn.Account = account
	s.mu.Unlock()

	receipt, err := w.BuyCoffee(ctx, message, value)
	if err != nil {
		s.log.Error().Err(err).Msg("buy coffee")
		s.notify.Notify(Notification{ID: TxNotificationID, Kind: Error, Message: userMessage(err, MsgPurchaseFailed)})
		return err
	}
	if receipt != nil {
		s.log.Info().Str("tx", receipt.TxHash.Hex()).Msg("coffee bought")
	}

	s.notify.Notify(Notification{ID: TxNotificationID, Kind: Success, Message: MsgThanks})
	_ = s.LoadContributions(ctx)
	return nil
}

// Owner reads the contract owner through the read path.
func (s *Session) Owner(ctx context.Context) (common.Address, error) {
	return s.reader.Owner(ctx)
}

// SetOwner transfers ownership using the connected wallet.
func (s *Session) SetOwner(ctx context.Context, newOwner common.Address) (*types.Receipt, error) {
	return s.ownerCall(ctx, func(w Writer) (*types.Receipt, error) { return w.SetOwner(ctx, newOwner) })
}

// Withdraw moves the contract balance to the owner.
func (s *Session) Withdraw(ctx context.Context) (*types.Receipt, error) {
	return s.ownerCall(ctx, func(w Writer) (*types.Receipt, error) { return w.Withdraw(ctx) })
}

func (s *Session) ownerCall(ctx context.Context, call func(Writer) (*types.Receipt, error)) (*types.Receipt, error) {
	if !s.State().IsConnected {
		return nil, ErrNotConnected
	}
	w, _, err := s.connectWallet(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.swapWriter(w)
	s.mu.Unlock()
	return call(w)
}

// userMessage turns an error into something a user can act on.
func userMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, wallet.ErrNoProvider):
		return "No wallet found. Add one with `coffee wallet add`"
	case errors.Is(err, wallet.ErrUserRejected):
		return "Request rejected in wallet"
	case errors.Is(err, ErrNoAccounts):
		return "No accounts found"
	case errors.Is(err, ErrSignerMismatch):
		return "Signer address mismatch"
	case errors.Is(err, ErrWrongChain):
		return "Wallet is on another network. Reload coffee"
	case errors.Is(err, contract.ErrReverted):
		return "Transaction reverted"
	case err != nil && err.Error() != "":
		return err.Error()
	default:
		return fallback
	}
}
