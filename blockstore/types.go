package blockstore

import "math/big"

// Signature is one entry of a stored block's ordered signature list
// (spec.md §3: "signatures: ordered list of (pubkey?, signature)").
type Signature struct {
	Pubkey    []byte // nil/empty means absent ("0" on the wire, spec.md §4.D)
	Signature []byte
}

// AddrAmount is one entry of an ordered to_list/from_list map. A plain Go
// map cannot preserve insertion order, so both lists are ordered slices.
type AddrAmount struct {
	Addr   []byte
	Amount *big.Int
}

// SuperBlockSegment is one entry of a block's super_block_segments list
// (spec.md §3/§4.D).
type SuperBlockSegment struct {
	Num      uint64
	Checksum []byte
}

// Block is the persisted shape of a chain block (spec.md §3).
type Block struct {
	Num                    uint64
	Checksum               []byte
	PrevChecksum           []byte
	WalletStateChecksum    []byte
	SigFreezeChecksum      []byte
	Difficulty             uint64
	PowField               []byte
	TxIDs                  [][]byte // set<bytes>, order not significant
	Signatures             []Signature
	Timestamp              int64
	Version                uint32
	LastSuperBlockChecksum []byte // nil means absent
	LastSuperBlockNum      uint64
	SuperBlockSegments     []SuperBlockSegment
	CompactedSigs          bool
	BlockProposer          []byte // nil means absent
}

// IsSuperBlock reports whether this block carries a reference to a prior
// super-block and must therefore also be mirrored into the super-block
// side database (spec.md §4.D "Insert block").
func (b *Block) IsSuperBlock() bool { return len(b.LastSuperBlockChecksum) > 0 }

// SuperBlockRecord is the persisted shape of a row in the super-block side
// database (spec.md §3/§4.D), a narrower projection of Block carrying only
// the fields mirrored into superblocks.dat.
type SuperBlockRecord struct {
	Num                    uint64
	Checksum               []byte
	LastSuperBlockChecksum []byte
	LastSuperBlockNum      uint64
	SuperBlockSegments     []SuperBlockSegment
	WalletStateChecksum    []byte
	Timestamp              int64
}

// Transaction is the persisted shape of a chain transaction (spec.md §3).
type Transaction struct {
	ID           []byte
	Type         uint32
	Amount       *big.Int
	Fee          *big.Int
	ToList       []AddrAmount
	FromList     []AddrAmount
	DataChecksum []byte
	Data         []byte // stored byte-reversed ("shuffled") on disk
	BlockHeight  uint64
	Nonce        uint32
	Timestamp    int64
	Checksum     []byte
	Signature    []byte
	Pubkey       []byte
	Applied      uint64
	Version      uint32
}
