package wallet

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
)

// ErrCorrupt signals a malformed wallet snapshot encoding (used when a
// Destroy entry's embedded wallet cannot be decoded).
var ErrCorrupt = errors.New("wallet: corrupt snapshot")

// Encode serializes w positionally: ID, Balance, PublicKey,
// RequiredSignatures, AllowedSigners (count-prefixed), UserData. Every
// byte-string field is i32-length-prefixed, consistent with the WSJ entry
// codec that embeds this (spec.md §3 Destroy entry: "serialized via its
// own codec and length-prefixed").
func (w *Wallet) Encode() []byte {
	var buf []byte
	writeBytes := func(p []byte) {
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(len(p)))
		buf = append(buf, lb[:]...)
		buf = append(buf, p...)
	}

	writeBytes(w.ID)
	var balBytes []byte
	if w.Balance != nil {
		balBytes = w.Balance.Bytes()
	}
	writeBytes(balBytes)
	writeBytes(w.PublicKey)
	buf = append(buf, w.RequiredSignatures)

	signers := w.SignerAddresses()
	var cb [4]byte
	binary.LittleEndian.PutUint32(cb[:], uint32(len(signers)))
	buf = append(buf, cb[:]...)
	for _, s := range signers {
		writeBytes(s)
	}
	writeBytes(w.UserData)
	return buf
}

// Decode parses the format written by Encode.
func Decode(buf []byte) (*Wallet, error) {
	pos := 0
	readBytes := func() ([]byte, error) {
		if len(buf)-pos < 4 {
			return nil, ErrCorrupt
		}
		n := binary.LittleEndian.Uint32(buf[pos : pos+4])
		pos += 4
		if n == 0 {
			return nil, nil
		}
		if len(buf)-pos < int(n) {
			return nil, ErrCorrupt
		}
		out := make([]byte, n)
		copy(out, buf[pos:pos+int(n)])
		pos += int(n)
		return out, nil
	}

	id, err := readBytes()
	if err != nil {
		return nil, err
	}
	balBytes, err := readBytes()
	if err != nil {
		return nil, err
	}
	pubkey, err := readBytes()
	if err != nil {
		return nil, err
	}
	if len(buf)-pos < 1 {
		return nil, ErrCorrupt
	}
	required := buf[pos]
	pos++
	if len(buf)-pos < 4 {
		return nil, ErrCorrupt
	}
	count := binary.LittleEndian.Uint32(buf[pos : pos+4])
	pos += 4

	w := &Wallet{
		ID:                 Address(id),
		Balance:            new(big.Int).SetBytes(balBytes),
		PublicKey:          pubkey,
		RequiredSignatures: required,
		AllowedSigners:     make(map[string]Address, count),
	}
	for i := uint32(0); i < count; i++ {
		sig, err := readBytes()
		if err != nil {
			return nil, err
		}
		a := Address(sig)
		w.AllowedSigners[a.String()] = a
	}
	userData, err := readBytes()
	if err != nil {
		return nil, err
	}
	w.UserData = userData
	return w, nil
}
