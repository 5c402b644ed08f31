package wsj

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silverpine/wsjnode/wallet"
)

func TestEntryEncodeDecodeRoundTrip(t *testing.T) {
	addr := wallet.Address("target-addr")
	signer := wallet.Address("signer-addr")
	snap := &wallet.Wallet{ID: addr, Balance: big.NewInt(7), RequiredSignatures: 1}

	cases := []struct {
		name string
		e    Entry
	}{
		{"balance", NewBalanceEntry(addr, big.NewInt(10), big.NewInt(20))},
		{"allowed_signer_add", NewAllowedSignerEntry(addr, signer, true, false)},
		{"allowed_signer_remove", NewAllowedSignerEntry(addr, signer, false, true)},
		{"required_signatures", NewRequiredSignaturesEntry(addr, 1, 2)},
		{"pubkey", NewPubkeyEntry(addr, []byte("pubkey-bytes"))},
		{"data", NewDataEntry(addr, []byte("old"), []byte("new"))},
		{"create", NewCreateEntry(addr)},
		{"destroy", NewDestroyEntry(addr, snap)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := c.e.Encode()
			decoded, err := DecodeEntry(buf)
			require.NoError(t, err)
			require.Equal(t, c.e.Tag(), decoded.Tag())
			require.Equal(t, buf, decoded.Encode())
		})
	}
}

func TestDecodeEntryUnknownTag(t *testing.T) {
	enc := &encoder{}
	enc.writeTag(Tag(99))
	_, err := DecodeEntry(enc.bytes())
	require.ErrorIs(t, err, ErrCorruptEntry)
}

func TestBalanceEntryApplyRevert(t *testing.T) {
	s := wallet.New(nil)
	addr := wallet.Address("addr1")
	require.True(t, s.SetWalletInternal(addr, &wallet.Wallet{ID: addr, Balance: big.NewInt(100), RequiredSignatures: 1}))

	e := NewBalanceEntry(addr, big.NewInt(100), big.NewInt(150))
	require.True(t, e.Apply(s))
	require.EqualValues(t, 150, s.Get(addr).Balance.Int64())

	require.True(t, e.Revert(s))
	require.EqualValues(t, 100, s.Get(addr).Balance.Int64())
}

func TestAllowedSignerRemoveWithAdjustRevert(t *testing.T) {
	s := wallet.New(nil)
	addr := wallet.Address("addr1")
	signer := wallet.Address("signer1")
	require.True(t, s.SetWalletInternal(addr, &wallet.Wallet{
		ID:                 addr,
		Balance:            big.NewInt(0),
		RequiredSignatures: 2,
		AllowedSigners:     map[string]wallet.Address{signer.String(): signer},
	}))

	e := NewAllowedSignerEntry(addr, signer, false, true)
	require.True(t, e.Apply(s))
	require.NotContains(t, s.Get(addr).AllowedSigners, signer.String())
	require.EqualValues(t, 1, s.Get(addr).RequiredSignatures)

	require.True(t, e.Revert(s))
	require.Equal(t, signer, s.Get(addr).AllowedSigners[signer.String()])
	require.EqualValues(t, 2, s.Get(addr).RequiredSignatures)
}

func TestDataEntryDivergentStateFails(t *testing.T) {
	s := wallet.New(nil)
	addr := wallet.Address("addr1")
	require.True(t, s.SetWalletInternal(addr, &wallet.Wallet{ID: addr, Balance: big.NewInt(0), RequiredSignatures: 1, UserData: []byte("current")}))

	e := NewDataEntry(addr, []byte("stale-expectation"), []byte("new"))
	require.False(t, e.Apply(s))
	require.Equal(t, "current", string(s.Get(addr).UserData))
}

func TestDestroyEntryApplyRevert(t *testing.T) {
	s := wallet.New(nil)
	addr := wallet.Address("addr1")
	original := &wallet.Wallet{ID: addr, Balance: big.NewInt(55), RequiredSignatures: 1, UserData: []byte("keep-me")}
	require.True(t, s.SetWalletInternal(addr, original))

	snap := s.Snapshot(addr)
	destroy := NewDestroyEntry(addr, snap)
	require.True(t, destroy.Apply(s))
	require.False(t, s.Exists(addr))

	require.True(t, destroy.Revert(s))
	require.True(t, s.Exists(addr))
	require.EqualValues(t, 55, s.Get(addr).Balance.Int64())
	require.Equal(t, "keep-me", string(s.Get(addr).UserData))
}
