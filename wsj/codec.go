// Package wsj implements the Wallet-State Journal: a write-ahead,
// reversible mutation log (spec.md §4.B/§4.C). Entries are a tagged
// variant with a fixed, wire-stable discriminant (§3); encoding is
// positional little-endian with i32 length-prefixed byte strings (§6).
package wsj

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Sentinel error kinds (spec.md §7). These are values, not a typed
// hierarchy, matching the "error kinds (not types)" framing.
var (
	ErrCorruptEntry   = errors.New("wsj: corrupt entry")
	ErrMissingTarget  = errors.New("wsj: missing target")
	ErrDivergentState = errors.New("wsj: divergent state")
)

// Tag is the 32-bit wire discriminant. Values 1-7 are part of the wire
// format and must never be renumbered (spec.md §3/§9).
type Tag int32

const (
	TagBalance            Tag = 1
	TagAllowedSigner      Tag = 2
	TagRequiredSignatures Tag = 3
	TagPubkey             Tag = 4
	TagData               Tag = 5
	TagCreate             Tag = 6
	TagDestroy            Tag = 7
)

// truncatedSHA512 is the audit/transport checksum function spec.md §3
// calls "truncated_sha512": the first 32 bytes of the full 64-byte SHA-512
// digest. Cryptographic primitives are an explicit spec.md non-goal (the
// `Crypto` facility is an external collaborator we only specify), so this
// wraps stdlib directly rather than depending on a pack crypto library.
func truncatedSHA512(data []byte) []byte {
	sum := sha512.Sum512(data)
	out := make([]byte, 32)
	copy(out, sum[:32])
	return out
}

// --- positional codec helpers -------------------------------------------------

type encoder struct {
	buf []byte
}

func (e *encoder) writeTag(t Tag) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(t))
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) writeI32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	e.buf = append(e.buf, b[:]...)
}

// writeBytes writes an i32-length-prefixed byte string. A nil or empty
// slice writes length 0 and no payload ("absent"), per spec.md §6.
func (e *encoder) writeBytes(p []byte) {
	e.writeI32(int32(len(p)))
	e.buf = append(e.buf, p...)
}

func (e *encoder) writeByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *encoder) writeBool(b bool) {
	if b {
		e.writeByte(1)
	} else {
		e.writeByte(0)
	}
}

func (e *encoder) bytes() []byte { return e.buf }

type decoder struct {
	buf []byte
	pos int
}

func newDecoder(buf []byte) *decoder { return &decoder{buf: buf} }

func (d *decoder) remaining() int { return len(d.buf) - d.pos }

func (d *decoder) peekTag() (Tag, error) {
	if d.remaining() < 4 {
		return 0, errors.Wrap(ErrCorruptEntry, "peek tag: short buffer")
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos : d.pos+4])
	return Tag(v), nil
}

func (d *decoder) readI32() (int32, error) {
	if d.remaining() < 4 {
		return 0, errors.Wrap(ErrCorruptEntry, "read i32: short buffer")
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return int32(v), nil
}

func (d *decoder) readTag() (Tag, error) {
	v, err := d.readI32()
	return Tag(v), err
}

func (d *decoder) readBytes() ([]byte, error) {
	n, err := d.readI32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n < 0 || d.remaining() < int(n) {
		return nil, errors.Wrap(ErrCorruptEntry, "read bytes: short buffer")
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out, nil
}

func (d *decoder) readByte() (byte, error) {
	if d.remaining() < 1 {
		return 0, errors.Wrap(ErrCorruptEntry, "read byte: short buffer")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readBool() (bool, error) {
	b, err := d.readByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}
