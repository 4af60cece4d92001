package connect_test

import (
	"context"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/coffee/internal/connect"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	"github.com/Mohsinsiddi/coffee/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	alice = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	bob   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

type fakeSigner struct{ addr common.Address }

func (s fakeSigner) Address() common.Address { return s.addr }

func (s fakeSigner) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type fakeProvider struct {
	mu          sync.Mutex
	accounts    []common.Address
	granted     []common.Address // answered by Accounts
	signer      common.Address
	permErr     error
	permCalls   int
	events      chan wallet.Event
	blockPermit chan struct{} // when set, RequestPermissions waits on it
}

func newFakeProvider(accounts ...common.Address) *fakeProvider {
	p := &fakeProvider{accounts: accounts, events: make(chan wallet.Event, 8)}
	if len(accounts) > 0 {
		p.signer = accounts[0]
	}
	return p
}

func (p *fakeProvider) RequestPermissions(context.Context) error {
	p.mu.Lock()
	p.permCalls++
	block := p.blockPermit
	err := p.permErr
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (p *fakeProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts, nil
}

func (p *fakeProvider) Accounts(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted, nil
}

func (p *fakeProvider) Signer(context.Context) (wallet.Signer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fakeSigner{addr: p.signer}, nil
}

func (p *fakeProvider) ChainID(context.Context) (int64, error) { return 50312, nil }

func (p *fakeProvider) Subscribe() (<-chan wallet.Event, func()) {
	return p.events, func() {}
}

func (p *fakeProvider) switchTo(addr common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = []common.Address{addr}
	p.signer = addr
}

func (p *fakeProvider) permissionCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permCalls
}

type fakeReader struct {
	mu    sync.Mutex
	list  []contract.Contribution
	err   error
	calls int
	owner common.Address
}

func (r *fakeReader) GetContributions(context.Context) ([]contract.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]contract.Contribution, len(r.list))
	copy(out, r.list)
	return out, nil
}

func (r *fakeReader) Owner(context.Context) (common.Address, error) { return r.owner, nil }

func (r *fakeReader) fetches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeReader) append(c contract.Contribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, c)
}

type fakeWriter struct {
	signer  common.Address
	chainID int64
	reader  *fakeReader // mined purchases land here
	err     error
	bought  []string
	closed  bool
	owners  []common.Address
	withdrs int
}

func (w *fakeWriter) BuyCoffee(_ context.Context, message string, value *big.Int) (*types.Receipt, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.bought = append(w.bought, message)
	if w.reader != nil {
		w.reader.append(contract.Contribution{Supporter: w.signer, Amount: value, Message: message, Timestamp: big.NewInt(99)})
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (w *fakeWriter) SetOwner(_ context.Context, o common.Address) (*types.Receipt, error) {
	w.owners = append(w.owners, o)
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, w.err
}

func (w *fakeWriter) Withdraw(context.Context) (*types.Receipt, error) {
	w.withdrs++
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, w.err
}

func (w *fakeWriter) ChainID() *big.Int { return big.NewInt(w.chainID) }

func (w *fakeWriter) Close() { w.closed = true }

// binder hands out writers and remembers them.
type binder struct {
	mu      sync.Mutex
	reader  *fakeReader
	err     error
	writers []*fakeWriter
	buyErr  error
	chainID int64 // 0 means the wallet's chain
}

func (b *binder) bind(_ context.Context, s wallet.Signer) (connect.Writer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	chainID := b.chainID
	if chainID == 0 {
		chainID = 50312
	}
	w := &fakeWriter{signer: s.Address(), chainID: chainID, reader: b.reader, err: b.buyErr}
	b.writers = append(b.writers, w)
	return w, nil
}

func (b *binder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writers)
}

func (b *binder) last() *fakeWriter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.writers) == 0 {
		return nil
	}
	return b.writers[len(b.writers)-1]
}

type recorder struct {
	mu   sync.Mutex
	list []connect.Notification
}

func (r *recorder) Notify(n connect.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
}

func (r *recorder) all() []connect.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]connect.Notification(nil), r.list...)
}

func (r *recorder) lastOf(kind connect.Kind) (connect.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.list) - 1; i >= 0; i-- {
		if r.list[i].Kind == kind {
			return r.list[i], true
		}
	}
	return connect.Notification{}, false
}

func (r *recorder) messages() []string {
	var out []string
	for _, n := range r.all() {
		out = append(out, n.Message)
	}
	return out
}
