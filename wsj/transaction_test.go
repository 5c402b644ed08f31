package wsj

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silverpine/wsjnode/wallet"
)

func TestTransactionApplyStopsOnFirstFailure(t *testing.T) {
	s := wallet.New(nil)
	addr := wallet.Address("addr1")
	require.True(t, s.SetWalletInternal(addr, &wallet.Wallet{ID: addr, Balance: big.NewInt(10), RequiredSignatures: 1}))

	missing := wallet.Address("no-such-wallet")
	tx := NewTransaction(1, nil)
	tx.Append(NewBalanceEntry(addr, big.NewInt(10), big.NewInt(20)))
	tx.Append(NewBalanceEntry(missing, big.NewInt(0), big.NewInt(5)))
	tx.Append(NewBalanceEntry(addr, big.NewInt(20), big.NewInt(30)))

	require.False(t, tx.Apply(s))
	// the first entry applied before the failing second entry halted the loop
	require.EqualValues(t, 20, s.Get(addr).Balance.Int64())
}

func TestTransactionRevertBestEffort(t *testing.T) {
	s := wallet.New(nil)
	addr := wallet.Address("addr1")
	require.True(t, s.SetWalletInternal(addr, &wallet.Wallet{ID: addr, Balance: big.NewInt(100), RequiredSignatures: 1}))

	tx := NewTransaction(1, nil)
	tx.Append(NewBalanceEntry(addr, big.NewInt(100), big.NewInt(150)))
	tx.Append(NewBalanceEntry(addr, big.NewInt(150), big.NewInt(175)))
	require.True(t, tx.Apply(s))
	require.EqualValues(t, 175, s.Get(addr).Balance.Int64())

	require.True(t, tx.Revert(s))
	require.EqualValues(t, 100, s.Get(addr).Balance.Int64())
}

func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
	addr := wallet.Address("addr1")
	tx := NewTransaction(42, nil)
	tx.Append(NewBalanceEntry(addr, big.NewInt(1), big.NewInt(2)))
	tx.Append(NewPubkeyEntry(addr, []byte("pub")))

	buf := tx.Encode()
	decoded, err := DecodeTransaction(buf, nil)
	require.NoError(t, err)
	require.Equal(t, tx.Number, decoded.Number)
	require.Len(t, decoded.Entries(), 2)
	require.Equal(t, buf, decoded.Encode())
}

func TestAffectedWalletsLegacyVsCurrent(t *testing.T) {
	a := wallet.Address("bbb")
	b := wallet.Address("aaa")
	tx := NewTransaction(1, nil)
	tx.Append(NewBalanceEntry(a, big.NewInt(0), big.NewInt(1)))
	tx.Append(NewBalanceEntry(b, big.NewInt(0), big.NewInt(1)))
	tx.Append(NewBalanceEntry(a, big.NewInt(1), big.NewInt(2)))

	legacy := tx.AffectedWallets(9)
	require.Equal(t, []wallet.Address{b, a}, legacy) // sorted by bytes: "aaa" < "bbb"

	current := tx.AffectedWallets(10)
	require.Equal(t, []wallet.Address{a, b}, current) // first-occurrence order
}
