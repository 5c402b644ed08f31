package blockstore

import (
	"encoding/base64"
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorruptField is returned when a delimited/length-prefixed storage
// field cannot be parsed (spec.md §7 "corrupt-entry"-equivalent for the
// store's own encodings).
var ErrCorruptField = errors.New("blockstore: corrupt field")

// shuffle byte-reverses b. This is the storage-obfuscation convention of
// spec.md §4.D: "no cryptographic purpose, a storage convention that must
// be preserved bit-for-bit". It is its own inverse, so the same function
// serves both shuffle and unshuffle.
func shuffle(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func unshuffle(b []byte) []byte { return shuffle(b) }

// --- legacy transaction ids ---------------------------------------------------

// encodeLegacyTxID renders a binary (v8) transaction id in the "legacy"
// textual form used inside delimited blocks.transactions lists.
func encodeLegacyTxID(id []byte) string { return base58.Encode(id) }

// EncodeLegacyTransactionID exposes encodeLegacyTxID to other packages
// (the inventory protocol's getTransaction request carries this textual
// form, spec.md §6).
func EncodeLegacyTransactionID(id []byte) string { return encodeLegacyTxID(id) }

// decodeLegacyTxID converts a legacy textual id back to its v8 binary form.
func decodeLegacyTxID(s string) ([]byte, error) {
	out, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptField, err.Error())
	}
	return out, nil
}

// txIDBlockHeight decodes the block height embedded in a v8 binary
// transaction id: a varint starting at byte offset 1 (spec.md §4.D "Read
// transaction by id").
func txIDBlockHeight(id []byte) (uint64, error) {
	if len(id) < 2 {
		return 0, errors.Wrap(ErrCorruptField, "tx id too short")
	}
	height, n := protowire.ConsumeVarint(id[1:])
	if n < 0 {
		return 0, errors.Wrap(ErrCorruptField, "tx id height varint")
	}
	return height, nil
}

// --- delimited lists ----------------------------------------------------------

const listSep = "||"

// encodeTxIDList builds the blocks.transactions column value: a
// "||"-delimited list of legacy-form ids with a leading separator
// (spec.md §4.D "Insert block").
func encodeTxIDList(ids [][]byte) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(listSep)
		sb.WriteString(encodeLegacyTxID(id))
	}
	return sb.String()
}

// decodeTxIDList parses the format written by encodeTxIDList. The first
// (empty) element produced by the leading separator is skipped.
func decodeTxIDList(s string) ([][]byte, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, listSep)
	var out [][]byte
	for i, p := range parts {
		if i == 0 || p == "" {
			continue
		}
		id, err := decodeLegacyTxID(p)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// encodeSignatureList builds the blocks.signatures column value: a
// "||"-delimited list of "pubkey_b64:sig_b64" pairs, pubkey rendered as
// literal "0" when absent (spec.md §4.D).
func encodeSignatureList(sigs []Signature) string {
	var sb strings.Builder
	for _, s := range sigs {
		sb.WriteString(listSep)
		if len(s.Pubkey) == 0 {
			sb.WriteString("0")
		} else {
			sb.WriteString(base64.StdEncoding.EncodeToString(s.Pubkey))
		}
		sb.WriteString(":")
		sb.WriteString(base64.StdEncoding.EncodeToString(s.Signature))
	}
	return sb.String()
}

// decodeSignatureList parses the format written by encodeSignatureList.
// Duplicate signatures by the same signer (pubkey) are filtered, per
// spec.md §4.D "Decoding caveats".
func decodeSignatureList(s string) ([]Signature, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, listSep)
	seen := make(map[string]bool)
	var out []Signature
	for i, p := range parts {
		if i == 0 || p == "" {
			continue
		}
		idx := strings.Index(p, ":")
		if idx < 0 {
			return nil, errors.Wrap(ErrCorruptField, "signature entry missing ':'")
		}
		pkPart, sigPart := p[:idx], p[idx+1:]
		var pk []byte
		if pkPart != "0" {
			var err error
			pk, err = base64.StdEncoding.DecodeString(pkPart)
			if err != nil {
				return nil, errors.Wrap(ErrCorruptField, err.Error())
			}
		}
		sig, err := base64.StdEncoding.DecodeString(sigPart)
		if err != nil {
			return nil, errors.Wrap(ErrCorruptField, err.Error())
		}
		key := string(pk)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Signature{Pubkey: pk, Signature: sig})
	}
	return out, nil
}

// encodeAddrAmountList builds a to_list/from_list column value:
// "||addr_b58:amount_base64_big_endian" (spec.md §4.D "Insert transaction").
func encodeAddrAmountList(list []AddrAmount) string {
	var sb strings.Builder
	for _, e := range list {
		sb.WriteString(listSep)
		sb.WriteString(base58.Encode(e.Addr))
		sb.WriteString(":")
		amt := e.Amount
		if amt == nil {
			amt = big.NewInt(0)
		}
		sb.WriteString(base64.StdEncoding.EncodeToString(amt.Bytes()))
	}
	return sb.String()
}

func decodeAddrAmountList(s string) ([]AddrAmount, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, listSep)
	var out []AddrAmount
	for i, p := range parts {
		if i == 0 || p == "" {
			continue
		}
		idx := strings.Index(p, ":")
		if idx < 0 {
			return nil, errors.Wrap(ErrCorruptField, "addr/amount entry missing ':'")
		}
		addrPart, amtPart := p[:idx], p[idx+1:]
		addr, err := base58.Decode(addrPart)
		if err != nil {
			return nil, errors.Wrap(ErrCorruptField, err.Error())
		}
		amtBytes, err := base64.StdEncoding.DecodeString(amtPart)
		if err != nil {
			return nil, errors.Wrap(ErrCorruptField, err.Error())
		}
		out = append(out, AddrAmount{Addr: addr, Amount: new(big.Int).SetBytes(amtBytes)})
	}
	return out, nil
}

// --- super-block segments ------------------------------------------------------

// encodeSegments concatenates "u64 num | i32 len | bytes checksum" per
// segment (spec.md §4.D "Insert block").
func encodeSegments(segs []SuperBlockSegment) []byte {
	var buf []byte
	for _, s := range segs {
		var nb [8]byte
		binary.LittleEndian.PutUint64(nb[:], s.Num)
		buf = append(buf, nb[:]...)
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(len(s.Checksum)))
		buf = append(buf, lb[:]...)
		buf = append(buf, s.Checksum...)
	}
	return buf
}

// decodeSegments parses the format written by encodeSegments; i advances
// exactly 8+4+len per segment (spec.md §4.D "Decoding caveats").
func decodeSegments(buf []byte) ([]SuperBlockSegment, error) {
	var out []SuperBlockSegment
	i := 0
	for i < len(buf) {
		if len(buf)-i < 12 {
			return nil, errors.Wrap(ErrCorruptField, "short super block segment header")
		}
		num := binary.LittleEndian.Uint64(buf[i : i+8])
		length := binary.LittleEndian.Uint32(buf[i+8 : i+12])
		i += 12
		if len(buf)-i < int(length) {
			return nil, errors.Wrap(ErrCorruptField, "short super block segment checksum")
		}
		checksum := append([]byte(nil), buf[i:i+int(length)]...)
		i += int(length)
		out = append(out, SuperBlockSegment{Num: num, Checksum: checksum})
	}
	return out, nil
}
