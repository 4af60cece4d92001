package wallet

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// Provider errors.
var (
	ErrNoProvider   = errors.New("no wallet provider available")
	ErrUserRejected = errors.New("user rejected the request")
	ErrNoAccount    = errors.New("no active account")
)

// EventKind identifies a provider event.
type EventKind int

const (
	AccountsChanged EventKind = iota + 1
	ChainChanged
	Disconnected
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	case Disconnected:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is pushed by a Provider when its state changes outside the app.
type Event struct {
	Kind     EventKind
	Accounts []common.Address // AccountsChanged
	ChainID  int64            // ChainChanged
}

// Provider is the wallet the app connects to. It owns account selection
// and signing; the app only ever asks.
type Provider interface {
	// RequestPermissions prompts the user to grant account access.
	RequestPermissions(ctx context.Context) error
	// RequestAccounts returns the granted accounts, active first, prompting
	// for permission when none is granted yet.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts is RequestAccounts without any prompt.
	Accounts(ctx context.Context) ([]common.Address, error)
	// Signer returns a signing handle for the active account.
	Signer(ctx context.Context) (Signer, error)
	// ChainID is the network the provider is currently on.
	ChainID(ctx context.Context) (int64, error)
	// Subscribe streams events until the returned cancel func is called.
	Subscribe() (<-chan Event, func())
}
