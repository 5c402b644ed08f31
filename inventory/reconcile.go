package inventory

import (
	"github.com/silverpine/wsjnode/blockstore"
	"github.com/silverpine/wsjnode/chainlink"
	"github.com/silverpine/wsjnode/dlog"
)

// signatureLookbehind bounds how far behind the tip a BlockSignature
// advertisement is still considered servicable (spec.md §4.E: "tip − 5 <
// num ≤ tip + 1").
const signatureLookbehind = 5

// Reconciler decides, for each advertised Item, whether and what to
// fetch from the advertising peer (spec.md §4.E). It never throws: a
// malformed or unservicable advertisement yields "not handled" rather
// than an error (spec.md §7).
type Reconciler struct {
	Chain      chainlink.ChainView
	Presence   chainlink.Presence
	LocalBlock *chainlink.LocalBlockGuard
	Log        dlog.Logger
}

// Reconcile applies the spec.md §4.E decision table to item, sending at
// most one fetch request to peer and reporting whether it did.
func (r *Reconciler) Reconcile(item Item, peer chainlink.PeerLink) bool {
	log := r.Log
	if log == nil {
		log = dlog.Nop{}
	}
	switch v := item.(type) {
	case Block:
		return r.reconcileBlock(v, peer, log)
	case Transaction:
		return r.reconcileTransaction(v, peer, log)
	case KeepAlive:
		return r.reconcileKeepAlive(v, peer, log)
	case BlockSignature:
		return r.reconcileBlockSignature(v, peer, log)
	default:
		return false
	}
}

func (r *Reconciler) reconcileBlock(item Block, peer chainlink.PeerLink, log dlog.Logger) bool {
	tip := r.Chain.Tip()
	if item.Num <= tip {
		return false
	}
	// include_tx: 0 if this node is the proposing ("master") node for the
	// next height, else the full-transaction variant (spec.md §4.E).
	includeTx := byte(IncludeTxFull)
	if r.LocalBlock != nil {
		r.LocalBlock.Read(func(b *blockstore.Block) {
			if b != nil && b.Num == tip+1 {
				includeTx = IncludeTxNone
			}
		})
	}
	payload := encodeGetBlock(tip+1, includeTx, true)
	if err := peer.Send(CodeGetBlock, payload); err != nil {
		log.Warnw("inventory: getBlock send failed", "err", err)
		return false
	}
	return true
}

func (r *Reconciler) reconcileTransaction(item Transaction, peer chainlink.PeerLink, log dlog.Logger) bool {
	// Unconditional: no deduplication against an existing mempool entry
	// (spec.md §4.E, REDESIGN note: treat a bloom filter as an addition,
	// not a change of contract).
	legacy := blockstore.EncodeLegacyTransactionID(item.ID)
	if err := peer.Send(CodeGetTransaction, encodeGetTransaction(legacy)); err != nil {
		log.Warnw("inventory: getTransaction send failed", "err", err)
		return false
	}
	return true
}

func (r *Reconciler) reconcileKeepAlive(item KeepAlive, peer chainlink.PeerLink, log dlog.Logger) bool {
	presence := r.Presence.ByAddress(item.Addr)
	if presence == nil {
		if err := peer.Send(CodeGetPresence, encodeGetPresence(item.Addr)); err != nil {
			log.Warnw("inventory: getPresence send failed", "err", err)
			return false
		}
		return true
	}
	entry := presence.ByDevice(item.Device)
	if entry == nil || entry.LastSeen < item.LastSeen {
		if err := peer.Send(CodeGetKeepAlive, encodeGetKeepAlive(item.Addr, item.Device)); err != nil {
			log.Warnw("inventory: getKeepAlive send failed", "err", err)
			return false
		}
		return true
	}
	return false
}

// inSignatureWindow implements "tip − 5 < num ≤ tip + 1" (spec.md §4.E)
// without underflowing tip-5 when tip is small.
func inSignatureWindow(tip, num uint64) bool {
	if num > tip+1 {
		return false
	}
	if tip < signatureLookbehind {
		return true
	}
	return num > tip-signatureLookbehind
}

func (r *Reconciler) reconcileBlockSignature(item BlockSignature, peer chainlink.PeerLink, log dlog.Logger) bool {
	tip := r.Chain.Tip()
	if !inSignatureWindow(tip, item.Num) {
		return false
	}

	var known *blockstore.Block
	if item.Num == tip+1 {
		if r.LocalBlock == nil {
			return false
		}
		r.LocalBlock.Read(func(b *blockstore.Block) {
			if b != nil && b.Num == item.Num {
				known = b
			}
		})
	} else {
		known = r.Chain.Block(item.Num)
	}
	if known == nil || string(known.Checksum) != string(item.Hash) {
		// Absent or disagreeing checksum: the peer is advertising a fork
		// we cannot service (spec.md §4.E).
		return false
	}
	if r.Chain.HasSignature(known, item.Signer) {
		return false
	}
	if err := peer.Send(CodeGetBlockSignature, encodeGetBlockSignature(item.Num, item.Signer)); err != nil {
		log.Warnw("inventory: getBlockSignature send failed", "err", err)
		return false
	}
	return true
}
