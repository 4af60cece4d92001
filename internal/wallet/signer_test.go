package wallet_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/coffee/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySignerSignsForChain(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	w, err := mgr.AddWithKey("signer", testKey)
	require.NoError(t, err)

	signer, err := wallet.NewKeySigner(w, mgr.KeyStore())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), signer.Address())

	chainID := big.NewInt(50312)
	to := common.HexToAddress("0x392a0124ffcFeaA44E082E47093945085cD85500")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(10),
		Gas:       150_000,
		To:        &to,
		Value:     big.NewInt(1e15),
	})

	signed, err := signer.SignTx(tx, chainID)
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), from)
}

func TestKeySignerRejectsWatchOnly(t *testing.T) {
	_, err := wallet.NewKeySigner(&wallet.Wallet{Name: "v", Type: wallet.TypeWatchOnly}, wallet.NewMemKeyStore())
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)
}

func TestKeySignerMissingKey(t *testing.T) {
	w := &wallet.Wallet{Name: "lost", Address: testAddress, Type: wallet.TypeSigning, KeyRef: "coffee.lost"}
	signer, err := wallet.NewKeySigner(w, wallet.NewMemKeyStore())
	require.NoError(t, err)

	to := common.Address{}
	_, err = signer.SignTx(types.NewTx(&types.LegacyTx{To: &to, GasPrice: big.NewInt(1), Gas: 21000}), big.NewInt(1))
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)
}
