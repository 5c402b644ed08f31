package wsj

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/silverpine/wsjnode/dlog"
	"github.com/silverpine/wsjnode/wallet"
)

// Transaction is an ordered batch of entries plus a caller-assigned number
// (spec.md §3/§4.C). Its internal entry list is guarded by mu; append,
// apply, revert, get_bytes and affected_wallets all serialize on it, but
// callers must still ensure only one goroutine drives a given Transaction
// at a time (spec.md §5).
type Transaction struct {
	mu      sync.Mutex
	Number  uint64
	entries []Entry
	log     dlog.Logger
}

// NewTransaction builds an empty transaction with the given caller-assigned
// number. A nil logger falls back to a no-op.
func NewTransaction(number uint64, log dlog.Logger) *Transaction {
	if log == nil {
		log = dlog.Nop{}
	}
	return &Transaction{Number: number, log: log}
}

// Append adds e to the end of the entry list, preserving insertion order.
func (t *Transaction) Append(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

// Entries returns a copy of the current entry slice.
func (t *Transaction) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Apply iterates entries in insertion order. On the first failure it logs
// and returns false WITHOUT reverting — the caller owns calling Revert on
// the partially-applied transaction (spec.md §4.C).
func (t *Transaction) Apply(s *wallet.WalletState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.entries {
		if !e.Apply(s) {
			t.log.Warnw("wsj transaction apply failed", "number", t.Number, "index", i, "tag", e.Tag())
			return false
		}
	}
	return true
}

// Revert iterates entries in reverse insertion order. Individual failures
// are logged and skipped (best effort); Revert always returns true
// (spec.md §4.C).
func (t *Transaction) Revert(s *wallet.WalletState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if !e.Revert(s) {
			t.log.Warnw("wsj transaction revert entry failed, continuing", "number", t.Number, "index", i, "tag", e.Tag())
		}
	}
	return true
}

// AffectedWallets returns the distinct target wallets touched by this
// transaction. Two selectable modes (spec.md §4.C), keyed by the block's
// declared version — this is load-bearing for wallet-state checksums, so
// the mode must be chosen by the caller based on the block version, not
// inferred here.
//
//   - Legacy (blockVersion < 10): deduplicated and sorted by address bytes.
//   - Current (blockVersion >= 10): deduplicated, preserving first-occurrence
//     order.
func (t *Transaction) AffectedWallets(blockVersion uint32) []wallet.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	if blockVersion < 10 {
		return affectedWalletsLegacy(t.entries)
	}
	return affectedWalletsCurrent(t.entries)
}

func affectedWalletsLegacy(entries []Entry) []wallet.Address {
	seen := make(map[string]wallet.Address)
	for _, e := range entries {
		a := e.Target()
		seen[a.String()] = a
	}
	out := make([]wallet.Address, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func affectedWalletsCurrent(entries []Entry) []wallet.Address {
	seen := make(map[string]bool)
	out := make([]wallet.Address, 0, len(entries))
	for _, e := range entries {
		a := e.Target()
		key := a.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// Encode serializes the transaction as u64 number | i32 entry_count |
// entries... (spec.md §6).
func (t *Transaction) Encode() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, t.Number)
	var cb [4]byte
	binary.LittleEndian.PutUint32(cb[:], uint32(len(t.entries)))
	buf = append(buf, cb[:]...)
	for _, e := range t.entries {
		buf = append(buf, e.Encode()...)
	}
	return buf
}

// DecodeTransaction parses the format written by Encode.
func DecodeTransaction(buf []byte, log dlog.Logger) (*Transaction, error) {
	if len(buf) < 12 {
		return nil, errors.Wrap(ErrCorruptEntry, "transaction: short buffer")
	}
	number := binary.LittleEndian.Uint64(buf[:8])
	count := binary.LittleEndian.Uint32(buf[8:12])

	t := NewTransaction(number, log)
	d := newDecoder(buf[12:])
	for i := uint32(0); i < count; i++ {
		e, err := decodeEntryWithDecoder(d)
		if err != nil {
			return nil, err
		}
		t.entries = append(t.entries, e)
	}
	return t, nil
}
