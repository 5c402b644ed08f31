// Package chainlink declares the external collaborator interfaces the
// inventory reconciler depends on (spec.md §4.F): a view onto the chain,
// a device-presence registry, and a peer transport. This module treats
// consensus, mempool validation, cryptographic primitives, and transport
// framing as out of scope (spec.md §1) and only specifies the shapes a
// concrete node wires in.
package chainlink

import (
	"sync"

	"github.com/silverpine/wsjnode/blockstore"
)

// ChainView is the read-only view of committed chain state the inventory
// reconciler consults (spec.md §4.F).
type ChainView interface {
	// Tip returns the highest committed block number.
	Tip() uint64
	// Block returns the committed block at num, or nil if none exists.
	Block(num uint64) *blockstore.Block
	// ProposerBlock returns the in-flight block currently being signed,
	// or nil if the node is not proposing one.
	ProposerBlock() *blockstore.Block
	// HasSignature reports whether block already carries a signature
	// from signer.
	HasSignature(block *blockstore.Block, signer []byte) bool
}

// PresenceEntry is one device's last-seen record within a Presence
// (spec.md §4.F).
type PresenceEntry struct {
	Device   []byte
	LastSeen int64
}

// AddressPresence is the presence record for one wallet address.
type AddressPresence struct {
	Addresses []PresenceEntry
}

// ByDevice returns the entry for device, or nil if none is tracked.
func (p *AddressPresence) ByDevice(device []byte) *PresenceEntry {
	if p == nil {
		return nil
	}
	for i := range p.Addresses {
		if string(p.Addresses[i].Device) == string(device) {
			return &p.Addresses[i]
		}
	}
	return nil
}

// Presence is the device-presence registry the KeepAlive inventory branch
// consults (spec.md §4.F).
type Presence interface {
	ByAddress(addr []byte) *AddressPresence
}

// PeerLink is the outbound transport to one advertising peer (spec.md
// §4.F). code identifies the request kind; payload is the wire-encoded
// request body (spec.md §6).
type PeerLink interface {
	Send(code int, payload []byte) error
}

// LocalBlockGuard protects read access to the in-progress local block
// being assembled/signed, the local_block_lock of spec.md §5. Inventory
// code must take then release it around each read.
type LocalBlockGuard struct {
	mu    sync.Mutex
	block *blockstore.Block
}

// NewLocalBlockGuard wraps an initially empty in-progress block.
func NewLocalBlockGuard() *LocalBlockGuard {
	return &LocalBlockGuard{}
}

// Set installs the current in-progress block, replacing any previous one.
func (g *LocalBlockGuard) Set(b *blockstore.Block) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.block = b
}

// Read takes the lock, invokes fn with the in-progress block (nil if
// none), and releases the lock before returning.
func (g *LocalBlockGuard) Read(fn func(b *blockstore.Block)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.block)
}
