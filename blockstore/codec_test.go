package blockstore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShuffleIsSelfInverse(t *testing.T) {
	data := []byte("the quick brown fox")
	shuffled := shuffle(data)
	require.NotEqual(t, data, shuffled)
	require.Equal(t, data, unshuffle(shuffled))
}

func TestShuffleNil(t *testing.T) {
	require.Nil(t, shuffle(nil))
}

func TestTxIDListRoundTrip(t *testing.T) {
	ids := [][]byte{[]byte("tx-one"), []byte("tx-two"), []byte("tx-three")}
	encoded := encodeTxIDList(ids)
	decoded, err := decodeTxIDList(encoded)
	require.NoError(t, err)
	require.Equal(t, ids, decoded)
}

func TestTxIDListEmpty(t *testing.T) {
	decoded, err := decodeTxIDList("")
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestSignatureListRoundTripAndDedup(t *testing.T) {
	sigs := []Signature{
		{Pubkey: []byte("pk1"), Signature: []byte("sig1")},
		{Pubkey: nil, Signature: []byte("sig2")},
		{Pubkey: []byte("pk1"), Signature: []byte("sig1-dup")},
	}
	encoded := encodeSignatureList(sigs)
	decoded, err := decodeSignatureList(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 2) // duplicate signer filtered
}

func TestAddrAmountListRoundTrip(t *testing.T) {
	list := []AddrAmount{
		{Addr: []byte("addr-one"), Amount: big.NewInt(1000)},
		{Addr: []byte("addr-two"), Amount: big.NewInt(0)},
	}
	encoded := encodeAddrAmountList(list)
	decoded, err := decodeAddrAmountList(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Equal(t, list[0].Addr, decoded[0].Addr)
	require.EqualValues(t, 1000, decoded[0].Amount.Int64())
}

func TestSegmentsRoundTrip(t *testing.T) {
	segs := []SuperBlockSegment{
		{Num: 10, Checksum: []byte("checksum-a")},
		{Num: 20, Checksum: []byte("checksum-bb")},
	}
	encoded := encodeSegments(segs)
	decoded, err := decodeSegments(encoded)
	require.NoError(t, err)
	require.Equal(t, segs, decoded)
}

func TestSegmentsEmpty(t *testing.T) {
	decoded, err := decodeSegments(nil)
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestShardNumberFor(t *testing.T) {
	require.EqualValues(t, 0, shardNumberFor(0, 1000))
	require.EqualValues(t, 0, shardNumberFor(999, 1000))
	require.EqualValues(t, 1000, shardNumberFor(1000, 1000))
	require.EqualValues(t, 1000, shardNumberFor(1999, 1000))
}
