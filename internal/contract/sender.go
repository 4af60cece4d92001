package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/config"
	"github.com/Mohsinsiddi/coffee/internal/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// ErrEmptyMessage is returned when buyCoffee is called without a message.
var ErrEmptyMessage = errors.New("message is required")

// WriteBackend is the subset of ethclient the write handle needs.
type WriteBackend interface {
	ReadBackend
	ReceiptBackend
	ethereum.TransactionSender
	ethereum.GasEstimator
	ethereum.GasPricer
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Transactor sends write transactions to the contract as one signer.
type Transactor struct {
	*Contract
	backend WriteBackend
	signer  wallet.Signer
	chainID *big.Int

	pollInterval time.Duration
	onSent       func(*types.Transaction)
	log          zerolog.Logger
}

// TransactorOption configures a Transactor.
type TransactorOption func(*Transactor)

// WithPollInterval sets how often receipts are polled.
func WithPollInterval(d time.Duration) TransactorOption {
	return func(t *Transactor) { t.pollInterval = d }
}

// WithSentHook is called once a transaction is broadcast, before it is mined.
func WithSentHook(fn func(*types.Transaction)) TransactorOption {
	return func(t *Transactor) { t.onSent = fn }
}

// WithLogger sets the transactor's logger.
func WithLogger(l zerolog.Logger) TransactorOption {
	return func(t *Transactor) { t.log = l }
}

// NewTransactor binds signer to the contract at address. The backend's
// chain ID is fetched once here and used for every signature.
func NewTransactor(ctx context.Context, backend WriteBackend, address common.Address, signer wallet.Signer, opts ...TransactorOption) (*Transactor, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting chain id: %w", err)
	}
	t := &Transactor{
		Contract:     NewContract(address, backend),
		backend:      backend,
		signer:       signer,
		chainID:      chainID,
		pollInterval: config.ReceiptPollInterval,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// DialTransactor opens an RPC connection and binds signer to it. Close the
// transactor to release the connection.
func DialTransactor(ctx context.Context, rpcURL string, address common.Address, signer wallet.Signer, opts ...TransactorOption) (*Transactor, error) {
	client, err := chain.Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	t, err := NewTransactor(ctx, client, address, signer, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	t.close = client.Close
	return t, nil
}

// From is the signing account.
func (t *Transactor) From() common.Address { return t.signer.Address() }

// ChainID is the chain the transactor signs for.
func (t *Transactor) ChainID() *big.Int { return new(big.Int).Set(t.chainID) }

// BuyCoffee sends value with message and returns once the transaction is
// mined. A reverted transaction returns its receipt with ErrReverted.
func (t *Transactor) BuyCoffee(ctx context.Context, message string, value *big.Int) (*types.Receipt, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}
	data, err := coffeeABI.Pack("buyCoffee", message)
	if err != nil {
		return nil, fmt.Errorf("packing buyCoffee: %w", err)
	}
	return t.transact(ctx, data, value, config.GasLimitBuyCoffee)
}

// SetOwner transfers ownership. Only the current owner can call it.
func (t *Transactor) SetOwner(ctx context.Context, newOwner common.Address) (*types.Receipt, error) {
	data, err := coffeeABI.Pack("setOwner", newOwner)
	if err != nil {
		return nil, fmt.Errorf("packing setOwner: %w", err)
	}
	return t.transact(ctx, data, nil, config.GasLimitOwnerCall)
}

// Withdraw moves the contract balance to the owner.
func (t *Transactor) Withdraw(ctx context.Context) (*types.Receipt, error) {
	data, err := coffeeABI.Pack("withdraw")
	if err != nil {
		return nil, fmt.Errorf("packing withdraw: %w", err)
	}
	return t.transact(ctx, data, nil, config.GasLimitOwnerCall)
}

func (t *Transactor) transact(ctx context.Context, data []byte, value *big.Int, fallbackGas uint64) (*types.Receipt, error) {
	tx, err := t.Send(ctx, data, value, fallbackGas)
	if err != nil {
		return nil, err
	}
	if t.onSent != nil {
		t.onSent(tx)
	}
	return WaitMined(ctx, t.backend, tx, t.pollInterval)
}

// Send builds, signs and broadcasts a call to the contract without waiting.
func (t *Transactor) Send(ctx context.Context, data []byte, value *big.Int, fallbackGas uint64) (*types.Transaction, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := t.From()
	to := t.address

	nonce, err := t.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	gas, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		t.log.Debug().Err(err).Uint64("fallback", fallbackGas).Msg("gas estimate failed")
		gas = fallbackGas
	}

	head, err := t.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("getting head block: %w", err)
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := t.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   t.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	} else {
		gasPrice, err := t.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     data,
		})
	}

	signed, err := t.signer.SignTx(tx, t.chainID)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}

	t.log.Debug().
		Str("tx", signed.Hash().Hex()).
		Uint64("nonce", nonce).
		Uint64("gas", gas).
		Msg("transaction sent")
	return signed, nil
}
