package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silverpine/wsjnode/blockstore"
	"github.com/silverpine/wsjnode/chainlink"
)

type fakeChain struct {
	tip       uint64
	blocks    map[uint64]*blockstore.Block
	proposer  *blockstore.Block
	signed    map[string]bool
}

func (c *fakeChain) Tip() uint64                       { return c.tip }
func (c *fakeChain) Block(num uint64) *blockstore.Block { return c.blocks[num] }
func (c *fakeChain) ProposerBlock() *blockstore.Block   { return c.proposer }
func (c *fakeChain) HasSignature(b *blockstore.Block, signer []byte) bool {
	return c.signed[string(b.Checksum)+":"+string(signer)]
}

type fakePresence struct {
	byAddr map[string]*chainlink.AddressPresence
}

func (p *fakePresence) ByAddress(addr []byte) *chainlink.AddressPresence {
	return p.byAddr[string(addr)]
}

type fakePeer struct {
	sent    bool
	code    int
	payload []byte
}

func (p *fakePeer) Send(code int, payload []byte) error {
	p.sent = true
	p.code = code
	p.payload = payload
	return nil
}

func TestReconcileBlockAheadOfTip(t *testing.T) {
	chain := &fakeChain{tip: 10}
	r := &Reconciler{Chain: chain}
	peer := &fakePeer{}

	fetched := r.Reconcile(Block{Num: 11}, peer)
	require.True(t, fetched)
	require.Equal(t, CodeGetBlock, peer.code)
}

func TestReconcileBlockNotAheadOfTip(t *testing.T) {
	chain := &fakeChain{tip: 10}
	r := &Reconciler{Chain: chain}
	peer := &fakePeer{}

	fetched := r.Reconcile(Block{Num: 10}, peer)
	require.False(t, fetched)
	require.False(t, peer.sent)
}

func TestReconcileTransactionUnconditional(t *testing.T) {
	r := &Reconciler{Chain: &fakeChain{}}
	peer := &fakePeer{}
	fetched := r.Reconcile(Transaction{ID: []byte{0x08, 0x00}}, peer)
	require.True(t, fetched)
	require.Equal(t, CodeGetTransaction, peer.code)
}

func TestReconcileKeepAliveNoPresence(t *testing.T) {
	r := &Reconciler{Chain: &fakeChain{}, Presence: &fakePresence{byAddr: map[string]*chainlink.AddressPresence{}}}
	peer := &fakePeer{}
	fetched := r.Reconcile(KeepAlive{Addr: []byte("addr"), Device: []byte("dev"), LastSeen: 150}, peer)
	require.True(t, fetched)
	require.Equal(t, CodeGetPresence, peer.code)
}

func TestReconcileKeepAliveStaleDevice(t *testing.T) {
	presence := &fakePresence{byAddr: map[string]*chainlink.AddressPresence{
		"addr": {Addresses: []chainlink.PresenceEntry{{Device: []byte("dev"), LastSeen: 100}}},
	}}
	r := &Reconciler{Chain: &fakeChain{}, Presence: presence}
	peer := &fakePeer{}

	fetched := r.Reconcile(KeepAlive{Addr: []byte("addr"), Device: []byte("dev"), LastSeen: 150}, peer)
	require.True(t, fetched)
	require.Equal(t, CodeGetKeepAlive, peer.code)
}

func TestReconcileKeepAliveUpToDateDevice(t *testing.T) {
	presence := &fakePresence{byAddr: map[string]*chainlink.AddressPresence{
		"addr": {Addresses: []chainlink.PresenceEntry{{Device: []byte("dev"), LastSeen: 100}}},
	}}
	r := &Reconciler{Chain: &fakeChain{}, Presence: presence}
	peer := &fakePeer{}

	fetched := r.Reconcile(KeepAlive{Addr: []byte("addr"), Device: []byte("dev"), LastSeen: 50}, peer)
	require.False(t, fetched)
	require.False(t, peer.sent)
}

func TestReconcileBlockSignatureCommittedBlock(t *testing.T) {
	block := &blockstore.Block{Num: 8, Checksum: []byte("hash-8")}
	chain := &fakeChain{tip: 10, blocks: map[uint64]*blockstore.Block{8: block}, signed: map[string]bool{}}
	r := &Reconciler{Chain: chain}
	peer := &fakePeer{}

	fetched := r.Reconcile(BlockSignature{Num: 8, Hash: []byte("hash-8"), Signer: []byte("signer1")}, peer)
	require.True(t, fetched)
	require.Equal(t, CodeGetBlockSignature, peer.code)
}

func TestReconcileBlockSignatureAlreadySigned(t *testing.T) {
	block := &blockstore.Block{Num: 8, Checksum: []byte("hash-8")}
	chain := &fakeChain{tip: 10, blocks: map[uint64]*blockstore.Block{8: block}, signed: map[string]bool{"hash-8:signer1": true}}
	r := &Reconciler{Chain: chain}
	peer := &fakePeer{}

	fetched := r.Reconcile(BlockSignature{Num: 8, Hash: []byte("hash-8"), Signer: []byte("signer1")}, peer)
	require.False(t, fetched)
}

func TestReconcileBlockSignatureOutOfWindow(t *testing.T) {
	chain := &fakeChain{tip: 100}
	r := &Reconciler{Chain: chain}
	peer := &fakePeer{}

	fetched := r.Reconcile(BlockSignature{Num: 90, Hash: []byte("h"), Signer: []byte("s")}, peer)
	require.False(t, fetched)
}

func TestReconcileBlockSignatureInProgressBlock(t *testing.T) {
	guard := chainlink.NewLocalBlockGuard()
	guard.Set(&blockstore.Block{Num: 11, Checksum: []byte("hash-11")})
	chain := &fakeChain{tip: 10, signed: map[string]bool{}}
	r := &Reconciler{Chain: chain, LocalBlock: guard}
	peer := &fakePeer{}

	fetched := r.Reconcile(BlockSignature{Num: 11, Hash: []byte("hash-11"), Signer: []byte("signer1")}, peer)
	require.True(t, fetched)
}

func TestReconcileBlockSignatureForkDeclined(t *testing.T) {
	block := &blockstore.Block{Num: 8, Checksum: []byte("hash-8")}
	chain := &fakeChain{tip: 10, blocks: map[uint64]*blockstore.Block{8: block}}
	r := &Reconciler{Chain: chain}
	peer := &fakePeer{}

	fetched := r.Reconcile(BlockSignature{Num: 8, Hash: []byte("different-hash"), Signer: []byte("signer1")}, peer)
	require.False(t, fetched)
}
