package wsj

import (
	"math/big"

	"github.com/silverpine/wsjnode/wallet"
)

// Public mutators (spec.md §4.A) are what transaction execution calls.
// Each constructs the matching WSJ entry and then calls the corresponding
// internal mutator — entry first, then state — so that if the internal
// mutator fails, the caller can see the entry is already appended and must
// revert the transaction built so far.
//
// Every function below returns false if the underlying internal mutator
// failed; the entry has already been appended to tx in that case, exactly
// as spec.md §4.A requires ("order is (entry, then state)").

// AdjustBalance records a Balance entry moving addr's balance by delta
// (which may be negative) and applies it.
func AdjustBalance(tx *Transaction, s *wallet.WalletState, addr wallet.Address, delta *big.Int) bool {
	w := s.Get(addr)
	if w == nil {
		return false
	}
	old := new(big.Int).Set(w.Balance)
	newBal := new(big.Int).Add(old, delta)
	e := NewBalanceEntry(addr, old, newBal)
	tx.Append(e)
	return e.Apply(s)
}

// SetBalance records a Balance entry setting addr's balance directly to
// newBalance and applies it.
func SetBalance(tx *Transaction, s *wallet.WalletState, addr wallet.Address, newBalance *big.Int) bool {
	w := s.Get(addr)
	if w == nil {
		return false
	}
	old := new(big.Int).Set(w.Balance)
	e := NewBalanceEntry(addr, old, new(big.Int).Set(newBalance))
	tx.Append(e)
	return e.Apply(s)
}

// AddAllowedSigner records and applies an AllowedSigner(add) entry.
func AddAllowedSigner(tx *Transaction, s *wallet.WalletState, addr, signer wallet.Address) bool {
	e := NewAllowedSignerEntry(addr, signer, true, false)
	tx.Append(e)
	return e.Apply(s)
}

// RemoveAllowedSigner records and applies an AllowedSigner(remove) entry,
// optionally decrementing required_signatures.
func RemoveAllowedSigner(tx *Transaction, s *wallet.WalletState, addr, signer wallet.Address, adjustSigners bool) bool {
	e := NewAllowedSignerEntry(addr, signer, false, adjustSigners)
	tx.Append(e)
	return e.Apply(s)
}

// SetRequiredSignatures records and applies a RequiredSignatures entry.
func SetRequiredSignatures(tx *Transaction, s *wallet.WalletState, addr wallet.Address, newCount uint8) bool {
	w := s.Get(addr)
	if w == nil {
		return false
	}
	e := NewRequiredSignaturesEntry(addr, w.RequiredSignatures, newCount)
	tx.Append(e)
	return e.Apply(s)
}

// SetPubkey records and applies a Pubkey entry.
func SetPubkey(tx *Transaction, s *wallet.WalletState, addr wallet.Address, pubkey []byte) bool {
	e := NewPubkeyEntry(addr, pubkey)
	tx.Append(e)
	return e.Apply(s)
}

// SetUserData records and applies a Data entry, capturing the wallet's
// current data as the entry's old value.
func SetUserData(tx *Transaction, s *wallet.WalletState, addr wallet.Address, newData []byte) bool {
	w := s.Get(addr)
	if w == nil {
		return false
	}
	e := NewDataEntry(addr, append([]byte(nil), w.UserData...), newData)
	tx.Append(e)
	return e.Apply(s)
}

// CreateWallet records a Create entry (whose Apply is a no-op, per
// spec.md §4.B — the entry only exists so Revert can remove the wallet
// again) and then installs a fresh empty wallet at addr via the
// set_wallet_internal mutator.
func CreateWallet(tx *Transaction, s *wallet.WalletState, addr wallet.Address) bool {
	if s.Exists(addr) {
		return false
	}
	e := NewCreateEntry(addr)
	tx.Append(e)
	_ = e.Apply(s) // always true; the effect lives in SetWalletInternal below
	return s.SetWalletInternal(addr, &wallet.Wallet{
		ID:                 addr,
		Balance:            big.NewInt(0),
		RequiredSignatures: 1,
	})
}

// DestroyWallet captures addr's current wallet as a snapshot, records a
// Destroy entry, and removes the wallet.
func DestroyWallet(tx *Transaction, s *wallet.WalletState, addr wallet.Address) bool {
	snap := s.Snapshot(addr)
	if snap == nil {
		return false
	}
	e := NewDestroyEntry(addr, snap)
	tx.Append(e)
	return e.Apply(s)
}
