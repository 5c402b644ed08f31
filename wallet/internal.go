package wallet

import (
	"bytes"
	"math/big"
)

// Internal mutators (spec.md §4.A) are only ever invoked by WSJ entry
// replay (wsj.Entry.Apply / wsj.Entry.Revert). Each returns success/
// failure; a false return is a corruption signal the caller (an Entry's
// Apply/Revert) must propagate per spec.md §7.

// SetBalanceInternal sets addr's balance to newBalance. revert indicates
// this call is undoing a prior Balance entry (spec.md §4.B apply/revert
// table); it carries no semantic weight today beyond being available for
// audit/logging, but the flag exists because the source format requires
// the distinction to be representable.
func (s *WalletState) SetBalanceInternal(addr Address, newBalance *big.Int, revert bool) bool {
	w, ok := s.get(addr)
	if !ok {
		s.log.Warnw("set_balance_internal: missing target", "addr", addr.String(), "revert", revert)
		return false
	}
	w.Balance = new(big.Int).Set(newBalance)
	return true
}

// AddAllowedSignerInternal adds or removes signer from addr's allowed set.
// revert=false means "add", revert=true means "remove" — mirroring the
// apply/revert symmetry of the AllowedSigner entry (add <-> remove).
func (s *WalletState) AddAllowedSignerInternal(addr, signer Address, revert bool) bool {
	w, ok := s.get(addr)
	if !ok {
		s.log.Warnw("add_allowed_signer_internal: missing target", "addr", addr.String())
		return false
	}
	if w.AllowedSigners == nil {
		w.AllowedSigners = make(map[string]Address)
	}
	key := signer.String()
	if revert {
		delete(w.AllowedSigners, key)
	} else {
		w.AllowedSigners[key] = signer.clone()
	}
	return true
}

// RemoveAllowedSignerInternal removes signer from addr's allowed set, and
// optionally decrements RequiredSignatures (spec.md §4.B AllowedSigner
// remove apply effect).
func (s *WalletState) RemoveAllowedSignerInternal(addr, signer Address, adjustSigners bool) bool {
	w, ok := s.get(addr)
	if !ok {
		s.log.Warnw("remove_allowed_signer_internal: missing target", "addr", addr.String())
		return false
	}
	if w.AllowedSigners == nil {
		return false
	}
	key := signer.String()
	if _, present := w.AllowedSigners[key]; !present {
		s.log.Warnw("remove_allowed_signer_internal: signer not present", "addr", addr.String(), "signer", signer.String())
		return false
	}
	delete(w.AllowedSigners, key)
	if adjustSigners && w.RequiredSignatures > 1 {
		w.RequiredSignatures--
	}
	return true
}

// SetRequiredSignaturesInternal sets addr's RequiredSignatures field.
func (s *WalletState) SetRequiredSignaturesInternal(addr Address, newCount uint8) bool {
	w, ok := s.get(addr)
	if !ok {
		s.log.Warnw("set_required_signatures_internal: missing target", "addr", addr.String())
		return false
	}
	w.RequiredSignatures = newCount
	return true
}

// SetPubkeyInternal sets (or, on revert, clears) addr's public key.
func (s *WalletState) SetPubkeyInternal(addr Address, pubkey []byte, revert bool) bool {
	w, ok := s.get(addr)
	if !ok {
		s.log.Warnw("set_pubkey_internal: missing target", "addr", addr.String())
		return false
	}
	if revert {
		w.PublicKey = nil
		return true
	}
	w.PublicKey = append([]byte(nil), pubkey...)
	return true
}

// SetUserDataInternal sets addr's UserData to newData, but only if the
// wallet's current data equals old — this guards against applying a Data
// entry against state that has since diverged (spec.md §4.A).
func (s *WalletState) SetUserDataInternal(addr Address, newData, old []byte) bool {
	w, ok := s.get(addr)
	if !ok {
		s.log.Warnw("set_user_data_internal: missing target", "addr", addr.String())
		return false
	}
	if !bytes.Equal(w.UserData, old) {
		s.log.Warnw("set_user_data_internal: divergent state", "addr", addr.String())
		return false
	}
	w.UserData = append([]byte(nil), newData...)
	return true
}

// RemoveWalletInternal deletes addr's wallet entirely (Destroy apply /
// Create revert).
func (s *WalletState) RemoveWalletInternal(addr Address) bool {
	if !s.Exists(addr) {
		s.log.Warnw("remove_wallet_internal: missing target", "addr", addr.String())
		return false
	}
	delete(s.wallets, addr.String())
	return true
}

// SetWalletInternal installs full as addr's wallet verbatim (Destroy
// revert: restoring a captured snapshot; also the wsj.CreateWallet public
// mutator, which installs a freshly-constructed empty wallet after
// recording its Create entry).
func (s *WalletState) SetWalletInternal(addr Address, full *Wallet) bool {
	if full == nil {
		s.log.Warnw("set_wallet_internal: nil wallet", "addr", addr.String())
		return false
	}
	clone := full.Clone()
	clone.ID = addr.clone()
	s.wallets[addr.String()] = clone
	return true
}
