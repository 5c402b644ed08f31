// Package wallet holds the in-memory wallet-state: a keyed map of wallets
// and the internal mutators that replay already-recorded WSJ entries.
// The public mutator tier, which records a WSJ entry before calling an
// internal mutator, lives in package wsj (wsj/mutators.go), per
// spec.md §4.A.
package wallet

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/silverpine/wsjnode/dlog"
)

// Address is the opaque, unchecksummed byte identifier of a wallet.
type Address []byte

// Equal reports byte-for-byte equality.
func (a Address) Equal(b Address) bool { return bytes.Equal(a, b) }

// Less orders addresses by unchecksummed bytes, used by the legacy
// affected-wallets sort (spec.md §4.C).
func (a Address) Less(b Address) bool { return bytes.Compare(a, b) < 0 }

func (a Address) String() string { return string(a) }

// clone returns an independent copy of the address bytes.
func (a Address) clone() Address {
	if a == nil {
		return nil
	}
	out := make(Address, len(a))
	copy(out, a)
	return out
}

// Wallet is the persisted shape of a single account (spec.md §3).
type Wallet struct {
	ID                 Address
	Balance            *big.Int
	PublicKey          []byte
	AllowedSigners     map[string]Address // keyed by Address.String() for set semantics
	RequiredSignatures uint8
	UserData           []byte
}

// Clone returns a deep copy, used whenever a Destroy entry must capture a
// verbatim snapshot (spec.md §3 tag 7).
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	out := &Wallet{
		ID:                 w.ID.clone(),
		RequiredSignatures: w.RequiredSignatures,
	}
	if w.Balance != nil {
		out.Balance = new(big.Int).Set(w.Balance)
	}
	if w.PublicKey != nil {
		out.PublicKey = append([]byte(nil), w.PublicKey...)
	}
	if w.UserData != nil {
		out.UserData = append([]byte(nil), w.UserData...)
	}
	if w.AllowedSigners != nil {
		out.AllowedSigners = make(map[string]Address, len(w.AllowedSigners))
		for k, v := range w.AllowedSigners {
			out.AllowedSigners[k] = v.clone()
		}
	}
	return out
}

// SignerAddresses returns the allowed signers sorted by address bytes,
// for deterministic iteration (e.g. checksum inputs).
func (w *Wallet) SignerAddresses() []Address {
	out := make([]Address, 0, len(w.AllowedSigners))
	for _, a := range w.AllowedSigners {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Valid checks the §3 invariants: required_signatures >= 1 and
// required_signatures <= |allowed_signers| + 1.
func (w *Wallet) Valid() bool {
	if w.RequiredSignatures < 1 {
		return false
	}
	return int(w.RequiredSignatures) <= len(w.AllowedSigners)+1
}

// PruneEligible reports whether a wallet carries no residual state and may
// be dropped entirely (spec.md §3: "MAY be pruned", an implementation
// choice; SPEC_FULL.md §3 makes it a concrete predicate).
func PruneEligible(w *Wallet) bool {
	if w == nil {
		return true
	}
	if w.Balance != nil && w.Balance.Sign() != 0 {
		return false
	}
	if len(w.AllowedSigners) != 0 {
		return false
	}
	if len(w.UserData) != 0 {
		return false
	}
	if len(w.PublicKey) != 0 {
		return false
	}
	return true
}

// WalletState is the keyed map of wallets and the single collaborator the
// WSJ mutates during block application. It is not safe for concurrent
// apply/revert without the caller holding the exclusive lock described in
// spec.md §5.
type WalletState struct {
	wallets map[string]*Wallet
	log     dlog.Logger
}

// New builds an empty wallet-state. A nil logger falls back to a no-op.
func New(log dlog.Logger) *WalletState {
	if log == nil {
		log = dlog.Nop{}
	}
	return &WalletState{wallets: make(map[string]*Wallet), log: log}
}

func (s *WalletState) get(addr Address) (*Wallet, bool) {
	w, ok := s.wallets[addr.String()]
	return w, ok
}

// Get returns the wallet at addr, or nil if it does not exist. The
// returned value is the live wallet, not a copy — callers outside this
// package and wsj must not mutate it directly.
func (s *WalletState) Get(addr Address) *Wallet {
	w, _ := s.get(addr)
	return w
}

// Exists reports whether addr currently has a wallet.
func (s *WalletState) Exists(addr Address) bool {
	_, ok := s.get(addr)
	return ok
}

// Prune removes addr if its wallet is currently prune-eligible. Returns
// true if a wallet was removed.
func (s *WalletState) Prune(addr Address) bool {
	w, ok := s.get(addr)
	if !ok {
		return false
	}
	if !PruneEligible(w) {
		return false
	}
	delete(s.wallets, addr.String())
	return true
}

// Snapshot returns a deep copy of the wallet at addr, or nil. Used by the
// Destroy entry to capture prior state.
func (s *WalletState) Snapshot(addr Address) *Wallet {
	w, ok := s.get(addr)
	if !ok {
		return nil
	}
	return w.Clone()
}

// Checksum-style equality helper used by tests asserting that revert
// restores byte-identical state (spec.md §8).
func (s *WalletState) Equal(other *WalletState) bool {
	if len(s.wallets) != len(other.wallets) {
		return false
	}
	for k, w := range s.wallets {
		ow, ok := other.wallets[k]
		if !ok {
			return false
		}
		if !walletsEqual(w, ow) {
			return false
		}
	}
	return true
}

func walletsEqual(a, b *Wallet) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if !a.ID.Equal(b.ID) {
		return false
	}
	if (a.Balance == nil) != (b.Balance == nil) {
		return false
	}
	if a.Balance != nil && a.Balance.Cmp(b.Balance) != 0 {
		return false
	}
	if !bytes.Equal(a.PublicKey, b.PublicKey) {
		return false
	}
	if !bytes.Equal(a.UserData, b.UserData) {
		return false
	}
	if a.RequiredSignatures != b.RequiredSignatures {
		return false
	}
	if len(a.AllowedSigners) != len(b.AllowedSigners) {
		return false
	}
	for k, v := range a.AllowedSigners {
		ov, ok := b.AllowedSigners[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
