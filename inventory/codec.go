package inventory

import (
	"encoding/binary"

	"google.golang.org/protobuf/encoding/protowire"
)

// Request codes identify the fetch kind to a PeerLink (spec.md §4.E/§4.F;
// the exact numeric values are this node's own wire convention, not
// specified by spec.md beyond "send(code, bytes)").
const (
	CodeGetBlock          = 1
	CodeGetTransaction    = 2
	CodeGetPresence       = 3
	CodeGetKeepAlive      = 4
	CodeGetBlockSignature = 5
)

// IncludeTransactions values for encodeGetBlock's include_tx byte
// (spec.md §4.E: "0 if master else 2").
const (
	IncludeTxNone = 0
	IncludeTxFull = 2
)

// encodeGetBlock builds the getBlock payload: varint(next_height) |
// null-marker | endpoint | u8 include_tx | bool latest_only (spec.md §6).
// endpoint addressing is out of this module's scope (spec.md §1); an
// empty endpoint is encoded length-prefixed like the other byte-string
// fields in this protocol.
func encodeGetBlock(nextHeight uint64, includeTx byte, latestOnly bool) []byte {
	var buf []byte
	buf = protowire.AppendVarint(buf, nextHeight)
	buf = append(buf, 0x00) // null-marker: no additional addressing data
	buf = protowire.AppendVarint(buf, 0)
	buf = append(buf, includeTx)
	if latestOnly {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// encodeGetTransaction builds the getTransaction payload:
// string(legacy_tx_id) | u64(0) (spec.md §6). The trailing u64 is
// reserved and always zero.
func encodeGetTransaction(legacyID string) []byte {
	var buf []byte
	buf = protowire.AppendVarint(buf, uint64(len(legacyID)))
	buf = append(buf, legacyID...)
	var reserved [8]byte
	buf = append(buf, reserved[:]...)
	return buf
}

// encodeGetPresence builds the getPresence payload: i32 addr_len |
// addr_bytes (spec.md §6 — the one request using a fixed-width length
// rather than a varint).
func encodeGetPresence(addr []byte) []byte {
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(addr)))
	buf := make([]byte, 0, 4+len(addr))
	buf = append(buf, lb[:]...)
	buf = append(buf, addr...)
	return buf
}

// encodeGetKeepAlive builds the getKeepAlive payload: varint(addr_len) |
// addr | varint(device_len) | device (spec.md §6).
func encodeGetKeepAlive(addr, device []byte) []byte {
	var buf []byte
	buf = protowire.AppendVarint(buf, uint64(len(addr)))
	buf = append(buf, addr...)
	buf = protowire.AppendVarint(buf, uint64(len(device)))
	buf = append(buf, device...)
	return buf
}

// encodeGetBlockSignature builds the getBlockSignature payload:
// varint(block_num) | varint(addr_len) | addr (spec.md §6).
func encodeGetBlockSignature(num uint64, addr []byte) []byte {
	var buf []byte
	buf = protowire.AppendVarint(buf, num)
	buf = protowire.AppendVarint(buf, uint64(len(addr)))
	buf = append(buf, addr...)
	return buf
}
