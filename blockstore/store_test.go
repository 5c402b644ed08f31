package blockstore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBlocksPerDB uint64) *Store {
	t.Helper()
	s, err := Open(Options{
		BaseDir:        t.TempDir(),
		MaxBlocksPerDB: maxBlocksPerDB,
		Archival:       false,
	})
	require.NoError(t, err)
	require.NoError(t, s.Bootstrap(false))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleBlock(num uint64) *Block {
	return &Block{
		Num:                 num,
		Checksum:            []byte{byte(num), byte(num >> 8)},
		PrevChecksum:        []byte("prev"),
		WalletStateChecksum: []byte("wallet-state"),
		SigFreezeChecksum:   []byte("sig-freeze"),
		Difficulty:          1,
		TxIDs:               [][]byte{[]byte("tx-a"), []byte("tx-b")},
		Signatures:          []Signature{{Pubkey: []byte("pk"), Signature: []byte("sig")}},
		Timestamp:           1000 + int64(num),
		Version:             1,
	}
}

func TestInsertAndReadBlockByNumber(t *testing.T) {
	s := newTestStore(t, 1000)
	b := sampleBlock(5)
	require.NoError(t, s.InsertBlock(b))

	got, err := s.BlockByNumber(5)
	require.NoError(t, err)
	require.Equal(t, b.Checksum, got.Checksum)
	require.Equal(t, b.TxIDs, got.TxIDs)
	require.Len(t, got.Signatures, 1)
}

func TestBlockByNumberAboveTipReturnsNotFound(t *testing.T) {
	s := newTestStore(t, 1000)
	require.NoError(t, s.InsertBlock(sampleBlock(3)))

	_, err := s.BlockByNumber(100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInsertBlockCrossesShardBoundary(t *testing.T) {
	s := newTestStore(t, 10)
	require.NoError(t, s.InsertBlock(sampleBlock(5)))  // shard 0
	require.NoError(t, s.InsertBlock(sampleBlock(15))) // shard 10

	got5, err := s.BlockByNumber(5)
	require.NoError(t, err)
	require.EqualValues(t, 5, got5.Num)

	got15, err := s.BlockByNumber(15)
	require.NoError(t, err)
	require.EqualValues(t, 15, got15.Num)

	require.EqualValues(t, 15, s.Tip())
}

func TestInsertAndReadTransaction(t *testing.T) {
	s := newTestStore(t, 1000)
	tx := &Transaction{
		ID:          []byte{0x08, 0x00, 0x01},
		Type:        1,
		Amount:      big.NewInt(500),
		Fee:         big.NewInt(1),
		ToList:      []AddrAmount{{Addr: []byte("to-addr"), Amount: big.NewInt(500)}},
		FromList:    []AddrAmount{{Addr: []byte("from-addr"), Amount: big.NewInt(501)}},
		Data:        []byte("payload"),
		BlockHeight: 1,
		Nonce:       0,
		Timestamp:   1234,
		Checksum:    []byte("checksum"),
		Signature:   []byte("signature"),
		Pubkey:      []byte("pubkey"),
		Applied:     1,
		Version:     1,
	}
	require.NoError(t, s.InsertBlock(sampleBlock(1)))
	require.NoError(t, s.InsertTransaction(tx))

	got, err := s.TransactionByID(tx.ID)
	require.NoError(t, err)
	require.Equal(t, tx.Data, got.Data) // shuffled on write, unshuffled on read
	require.EqualValues(t, 500, got.Amount.Int64())
	require.Len(t, got.ToList, 1)
	require.Len(t, got.FromList, 1)
}

func TestTransactionsInBlockFilterByType(t *testing.T) {
	s := newTestStore(t, 1000)
	require.NoError(t, s.InsertBlock(sampleBlock(1)))
	require.NoError(t, s.InsertTransaction(&Transaction{
		ID: []byte{0x08, 0x01}, Type: 1, Amount: big.NewInt(1), Fee: big.NewInt(0), Applied: 1,
	}))
	require.NoError(t, s.InsertTransaction(&Transaction{
		ID: []byte{0x08, 0x02}, Type: 2, Amount: big.NewInt(2), Fee: big.NewInt(0), Applied: 1,
	}))

	all, err := s.TransactionsInBlock(1, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	typeFilter := uint32(1)
	filtered, err := s.TransactionsInBlock(1, &typeFilter)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.EqualValues(t, 1, filtered[0].Type)
}

func TestRemoveBlockRejectedOnArchivalStore(t *testing.T) {
	s, err := Open(Options{BaseDir: t.TempDir(), MaxBlocksPerDB: 1000, Archival: true})
	require.NoError(t, err)
	require.NoError(t, s.Bootstrap(false))
	defer s.Close()

	require.NoError(t, s.InsertBlock(sampleBlock(1)))
	err = s.RemoveBlock(1)
	require.ErrorIs(t, err, ErrArchivalRequired)
}

func TestRemoveBlockRemovesTransactionsFirst(t *testing.T) {
	s := newTestStore(t, 1000)
	require.NoError(t, s.InsertBlock(sampleBlock(1)))
	require.NoError(t, s.InsertTransaction(&Transaction{
		ID: []byte{0x08, 0x01}, Type: 1, Amount: big.NewInt(1), Fee: big.NewInt(0), Applied: 1,
	}))

	require.NoError(t, s.RemoveBlock(1))
	_, err := s.BlockByNumber(1)
	require.Error(t, err)

	txs, err := s.TransactionsInBlock(1, nil)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestSuperBlockMirroredToSideDatabase(t *testing.T) {
	s := newTestStore(t, 1000)
	b := sampleBlock(1)
	b.LastSuperBlockChecksum = []byte("super-checksum")
	b.LastSuperBlockNum = 0
	b.SuperBlockSegments = []SuperBlockSegment{{Num: 0, Checksum: []byte("seg")}}
	require.True(t, b.IsSuperBlock())
	require.NoError(t, s.InsertBlock(b))

	var count int
	row := s.superDB.QueryRow(`SELECT COUNT(*) FROM ` + TableSuperBlocks + ` WHERE ` + colBlockNum + ` = ?`, b.Num)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count)
}

func TestSuperBlockByHashAndByNumber(t *testing.T) {
	s := newTestStore(t, 1000)
	b := sampleBlock(1)
	b.LastSuperBlockChecksum = []byte("super-checksum")
	b.LastSuperBlockNum = 0
	b.SuperBlockSegments = []SuperBlockSegment{{Num: 0, Checksum: []byte("seg")}}
	require.NoError(t, s.InsertBlock(b))

	byHash, err := s.SuperBlockByHash(b.Checksum)
	require.NoError(t, err)
	require.EqualValues(t, 1, byHash.Num)
	require.Equal(t, b.LastSuperBlockChecksum, byHash.LastSuperBlockChecksum)
	require.Equal(t, b.SuperBlockSegments, byHash.SuperBlockSegments)

	byNum, err := s.SuperBlockByNumber(1)
	require.NoError(t, err)
	require.Equal(t, b.Checksum, byNum.Checksum)

	_, err = s.SuperBlockByHash([]byte("no-such-hash"))
	require.ErrorIs(t, err, ErrNotFound)
}
