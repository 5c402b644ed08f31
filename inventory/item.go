// Package inventory implements the inventory reconciliation protocol
// (spec.md §4.E): given a lightweight advertisement from a peer, decide
// which concrete object must be requested to catch up, without thrashing
// the network.
package inventory

// Item is one of the four advertisement shapes a peer can send (spec.md
// §4.E). Implementations are the only permitted variants.
type Item interface {
	isItem()
}

// Block advertises that the peer has a block at Num.
type Block struct {
	Num uint64
}

func (Block) isItem() {}

// Transaction advertises that the peer has the transaction identified
// by ID.
type Transaction struct {
	ID []byte
}

func (Transaction) isItem() {}

// KeepAlive advertises a device's last-seen time for a wallet address.
type KeepAlive struct {
	Addr     []byte
	Device   []byte
	LastSeen int64
}

func (KeepAlive) isItem() {}

// BlockSignature advertises that Signer has signed the block at Num with
// checksum Hash.
type BlockSignature struct {
	Num    uint64
	Hash   []byte
	Signer []byte
}

func (BlockSignature) isItem() {}
