package wsj

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/silverpine/wsjnode/wallet"
)

// Entry is a single reversible wallet-state mutation (spec.md §4.B). Every
// entry stores enough prior state to reverse itself without consulting
// other entries (spec.md §3 invariant).
type Entry interface {
	Tag() Tag
	Target() wallet.Address
	Encode() []byte
	Checksum() []byte
	Apply(s *wallet.WalletState) bool
	Revert(s *wallet.WalletState) bool
}

// DecodeEntry reads the leading tag and dispatches on it to the matching
// variant's decoder (spec.md §4.C). The tag is consumed once here; the
// variant decoders start at the first field and do not re-read it.
//
// Known source defect (spec.md §9): the original decoder peeked the Data
// entry's tag as though it were a Pubkey entry, which would make decoding
// impossible given the encoder writes tag 5 for Data. This implementation
// intentionally does the correct thing — dispatch tag 5 to Data — rather
// than reproduce that bug.
func DecodeEntry(buf []byte) (Entry, error) {
	d := newDecoder(buf)
	return decodeEntryWithDecoder(d)
}

// decodeEntryWithDecoder decodes a single entry starting at d's current
// position, advancing d past the entry's bytes. Shared by DecodeEntry and
// DecodeTransaction so a transaction's entries can be decoded from one
// contiguous buffer without re-encoding to learn their length.
func decodeEntryWithDecoder(d *decoder) (Entry, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagBalance:
		return decodeBalance(d)
	case TagAllowedSigner:
		return decodeAllowedSigner(d)
	case TagRequiredSignatures:
		return decodeRequiredSignatures(d)
	case TagPubkey:
		return decodePubkey(d)
	case TagData:
		return decodeData(d)
	case TagCreate:
		return decodeCreate(d)
	case TagDestroy:
		return decodeDestroy(d)
	default:
		return nil, errors.Wrapf(ErrCorruptEntry, "unknown entry tag %d", tag)
	}
}

func checksumOf(e Entry) []byte { return truncatedSHA512(e.Encode()) }

// --- Balance (tag 1) ---------------------------------------------------------

type BalanceEntry struct {
	TargetAddr wallet.Address
	OldBalance *big.Int
	NewBalance *big.Int
}

func NewBalanceEntry(target wallet.Address, old, new *big.Int) *BalanceEntry {
	return &BalanceEntry{TargetAddr: target, OldBalance: old, NewBalance: new}
}

func (e *BalanceEntry) Tag() Tag                 { return TagBalance }
func (e *BalanceEntry) Target() wallet.Address   { return e.TargetAddr }
func (e *BalanceEntry) Checksum() []byte         { return checksumOf(e) }

func (e *BalanceEntry) Encode() []byte {
	enc := &encoder{}
	enc.writeTag(TagBalance)
	enc.writeBytes(e.TargetAddr)
	enc.writeBytes(decimalBytes(e.OldBalance))
	enc.writeBytes(decimalBytes(e.NewBalance))
	return enc.bytes()
}

func decodeBalance(d *decoder) (*BalanceEntry, error) {
	target, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	oldB, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	newB, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	return &BalanceEntry{
		TargetAddr: target,
		OldBalance: new(big.Int).SetBytes(oldB),
		NewBalance: new(big.Int).SetBytes(newB),
	}, nil
}

func (e *BalanceEntry) Apply(s *wallet.WalletState) bool {
	return s.SetBalanceInternal(e.TargetAddr, e.NewBalance, false)
}

func (e *BalanceEntry) Revert(s *wallet.WalletState) bool {
	return s.SetBalanceInternal(e.TargetAddr, e.OldBalance, true)
}

func decimalBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

// --- AllowedSigner (tag 2) ---------------------------------------------------

type AllowedSignerEntry struct {
	TargetAddr    wallet.Address
	Signer        wallet.Address
	Adding        bool
	AdjustSigners bool // only meaningful and written when Adding == false
}

func NewAllowedSignerEntry(target, signer wallet.Address, adding, adjustSigners bool) *AllowedSignerEntry {
	return &AllowedSignerEntry{TargetAddr: target, Signer: signer, Adding: adding, AdjustSigners: adjustSigners}
}

func (e *AllowedSignerEntry) Tag() Tag               { return TagAllowedSigner }
func (e *AllowedSignerEntry) Target() wallet.Address { return e.TargetAddr }
func (e *AllowedSignerEntry) Checksum() []byte       { return checksumOf(e) }

func (e *AllowedSignerEntry) Encode() []byte {
	enc := &encoder{}
	enc.writeTag(TagAllowedSigner)
	enc.writeBytes(e.TargetAddr)
	enc.writeBytes(e.Signer)
	enc.writeBool(e.Adding)
	if !e.Adding {
		enc.writeBool(e.AdjustSigners)
	}
	return enc.bytes()
}

func decodeAllowedSigner(d *decoder) (*AllowedSignerEntry, error) {
	target, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	signer, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	adding, err := d.readBool()
	if err != nil {
		return nil, err
	}
	var adjust bool
	if !adding {
		adjust, err = d.readBool()
		if err != nil {
			return nil, err
		}
	}
	return &AllowedSignerEntry{TargetAddr: target, Signer: signer, Adding: adding, AdjustSigners: adjust}, nil
}

func (e *AllowedSignerEntry) Apply(s *wallet.WalletState) bool {
	if e.Adding {
		return s.AddAllowedSignerInternal(e.TargetAddr, e.Signer, false)
	}
	return s.RemoveAllowedSignerInternal(e.TargetAddr, e.Signer, e.AdjustSigners)
}

func (e *AllowedSignerEntry) Revert(s *wallet.WalletState) bool {
	if e.Adding {
		return s.AddAllowedSignerInternal(e.TargetAddr, e.Signer, true)
	}
	if !s.AddAllowedSignerInternal(e.TargetAddr, e.Signer, false) {
		return false
	}
	if e.AdjustSigners {
		w := s.Get(e.TargetAddr)
		if w == nil {
			return false
		}
		return s.SetRequiredSignaturesInternal(e.TargetAddr, w.RequiredSignatures+1)
	}
	return true
}

// --- RequiredSignatures (tag 3) ----------------------------------------------

type RequiredSignaturesEntry struct {
	TargetAddr wallet.Address
	OldCount   uint8
	NewCount   uint8
}

func NewRequiredSignaturesEntry(target wallet.Address, old, new uint8) *RequiredSignaturesEntry {
	return &RequiredSignaturesEntry{TargetAddr: target, OldCount: old, NewCount: new}
}

func (e *RequiredSignaturesEntry) Tag() Tag               { return TagRequiredSignatures }
func (e *RequiredSignaturesEntry) Target() wallet.Address { return e.TargetAddr }
func (e *RequiredSignaturesEntry) Checksum() []byte       { return checksumOf(e) }

func (e *RequiredSignaturesEntry) Encode() []byte {
	enc := &encoder{}
	enc.writeTag(TagRequiredSignatures)
	enc.writeBytes(e.TargetAddr)
	enc.writeByte(e.OldCount)
	enc.writeByte(e.NewCount)
	return enc.bytes()
}

func decodeRequiredSignatures(d *decoder) (*RequiredSignaturesEntry, error) {
	target, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	oldC, err := d.readByte()
	if err != nil {
		return nil, err
	}
	newC, err := d.readByte()
	if err != nil {
		return nil, err
	}
	return &RequiredSignaturesEntry{TargetAddr: target, OldCount: oldC, NewCount: newC}, nil
}

func (e *RequiredSignaturesEntry) Apply(s *wallet.WalletState) bool {
	return s.SetRequiredSignaturesInternal(e.TargetAddr, e.NewCount)
}

func (e *RequiredSignaturesEntry) Revert(s *wallet.WalletState) bool {
	return s.SetRequiredSignaturesInternal(e.TargetAddr, e.OldCount)
}

// --- Pubkey (tag 4) -----------------------------------------------------------

type PubkeyEntry struct {
	TargetAddr wallet.Address
	Pubkey     []byte
}

func NewPubkeyEntry(target wallet.Address, pubkey []byte) *PubkeyEntry {
	return &PubkeyEntry{TargetAddr: target, Pubkey: pubkey}
}

func (e *PubkeyEntry) Tag() Tag               { return TagPubkey }
func (e *PubkeyEntry) Target() wallet.Address { return e.TargetAddr }
func (e *PubkeyEntry) Checksum() []byte       { return checksumOf(e) }

func (e *PubkeyEntry) Encode() []byte {
	enc := &encoder{}
	enc.writeTag(TagPubkey)
	enc.writeBytes(e.TargetAddr)
	enc.writeBytes(e.Pubkey)
	return enc.bytes()
}

func decodePubkey(d *decoder) (*PubkeyEntry, error) {
	target, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	pubkey, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	return &PubkeyEntry{TargetAddr: target, Pubkey: pubkey}, nil
}

func (e *PubkeyEntry) Apply(s *wallet.WalletState) bool {
	return s.SetPubkeyInternal(e.TargetAddr, e.Pubkey, false)
}

func (e *PubkeyEntry) Revert(s *wallet.WalletState) bool {
	return s.SetPubkeyInternal(e.TargetAddr, nil, true)
}

// --- Data (tag 5) --------------------------------------------------------------

// DataEntry captures a user_data mutation. Wire order is new-before-old
// (spec.md §4.B/§6: "the order written is new-before-old").
type DataEntry struct {
	TargetAddr wallet.Address
	NewData    []byte
	OldData    []byte
}

func NewDataEntry(target wallet.Address, old, new []byte) *DataEntry {
	return &DataEntry{TargetAddr: target, NewData: new, OldData: old}
}

func (e *DataEntry) Tag() Tag               { return TagData }
func (e *DataEntry) Target() wallet.Address { return e.TargetAddr }
func (e *DataEntry) Checksum() []byte       { return checksumOf(e) }

func (e *DataEntry) Encode() []byte {
	enc := &encoder{}
	enc.writeTag(TagData)
	enc.writeBytes(e.TargetAddr)
	enc.writeBytes(e.NewData)
	enc.writeBytes(e.OldData)
	return enc.bytes()
}

func decodeData(d *decoder) (*DataEntry, error) {
	target, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	newData, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	oldData, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	return &DataEntry{TargetAddr: target, NewData: newData, OldData: oldData}, nil
}

func (e *DataEntry) Apply(s *wallet.WalletState) bool {
	return s.SetUserDataInternal(e.TargetAddr, e.NewData, e.OldData)
}

func (e *DataEntry) Revert(s *wallet.WalletState) bool {
	return s.SetUserDataInternal(e.TargetAddr, e.OldData, e.NewData)
}

// --- Create (tag 6) -------------------------------------------------------------

type CreateEntry struct {
	TargetAddr wallet.Address
}

func NewCreateEntry(target wallet.Address) *CreateEntry {
	return &CreateEntry{TargetAddr: target}
}

func (e *CreateEntry) Tag() Tag               { return TagCreate }
func (e *CreateEntry) Target() wallet.Address { return e.TargetAddr }
func (e *CreateEntry) Checksum() []byte       { return checksumOf(e) }

func (e *CreateEntry) Encode() []byte {
	enc := &encoder{}
	enc.writeTag(TagCreate)
	enc.writeBytes(e.TargetAddr)
	return enc.bytes()
}

func decodeCreate(d *decoder) (*CreateEntry, error) {
	target, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	return &CreateEntry{TargetAddr: target}, nil
}

// Apply is a no-op: the wallet is already created by the caller before
// this entry is appended (spec.md §4.B).
func (e *CreateEntry) Apply(s *wallet.WalletState) bool { return true }

func (e *CreateEntry) Revert(s *wallet.WalletState) bool {
	return s.RemoveWalletInternal(e.TargetAddr)
}

// --- Destroy (tag 7) -------------------------------------------------------------

type DestroyEntry struct {
	TargetAddr wallet.Address
	Snapshot   *wallet.Wallet
}

func NewDestroyEntry(target wallet.Address, snapshot *wallet.Wallet) *DestroyEntry {
	return &DestroyEntry{TargetAddr: target, Snapshot: snapshot}
}

func (e *DestroyEntry) Tag() Tag               { return TagDestroy }
func (e *DestroyEntry) Target() wallet.Address { return e.TargetAddr }
func (e *DestroyEntry) Checksum() []byte       { return checksumOf(e) }

func (e *DestroyEntry) Encode() []byte {
	enc := &encoder{}
	enc.writeTag(TagDestroy)
	enc.writeBytes(e.TargetAddr)
	enc.writeBytes(e.Snapshot.Encode())
	return enc.bytes()
}

func decodeDestroy(d *decoder) (*DestroyEntry, error) {
	target, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	snapBytes, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	snap, err := wallet.Decode(snapBytes)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptEntry, err.Error())
	}
	return &DestroyEntry{TargetAddr: target, Snapshot: snap}, nil
}

func (e *DestroyEntry) Apply(s *wallet.WalletState) bool {
	return s.RemoveWalletInternal(e.TargetAddr)
}

func (e *DestroyEntry) Revert(s *wallet.WalletState) bool {
	return s.SetWalletInternal(e.TargetAddr, e.Snapshot)
}
