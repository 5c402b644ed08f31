package blockstore

import (
	"math/big"

	"github.com/pkg/errors"
)

// ErrArchivalRequired signals a remove operation rejected because the
// store is archival (spec.md §4.D "Remove block/transaction": "only
// permitted if the node is configured as non-archival").
var ErrArchivalRequired = errors.New("blockstore: removal not permitted on archival store")

// InsertBlock persists b into the shard selected by its number and, when b
// carries a super-block reference, mirrors it into the super-block side
// database under the fixed lock order super-block -> shard (spec.md §4.D
// "Insert block", §5).
func (s *Store) InsertBlock(b *Block) error {
	if b.IsSuperBlock() {
		s.superMu.Lock()
		defer s.superMu.Unlock()
	}

	db, err := s.seek(b.Num)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR REPLACE INTO `+TableBlocks+` (
		`+colBlockNum+`, `+colBlockChecksum+`, `+colLastBlockChecksum+`,
		`+colWalletStateChecksum+`, `+colSigFreezeChecksum+`, `+colDifficulty+`,
		`+colPowField+`, `+colTransactions+`, `+colSignatures+`, `+colTimestamp+`,
		`+colVersion+`, `+colLastSuperBlockChecksum+`, `+colLastSuperBlockNum+`,
		`+colSuperBlockSegments+`, `+colCompactedSigs+`, `+colBlockProposer+`
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.Num, b.Checksum, b.PrevChecksum, b.WalletStateChecksum, b.SigFreezeChecksum,
		b.Difficulty, b.PowField, encodeTxIDList(b.TxIDs), encodeSignatureList(b.Signatures),
		b.Timestamp, b.Version, nullableBytes(b.LastSuperBlockChecksum), b.LastSuperBlockNum,
		encodeSegments(b.SuperBlockSegments), b.CompactedSigs, nullableBytes(b.BlockProposer),
	)
	if err != nil {
		return errors.Wrap(err, "insert block")
	}
	s.setTip(b.Num)

	if b.IsSuperBlock() {
		_, err = s.superDB.Exec(`INSERT OR REPLACE INTO `+TableSuperBlocks+` (
			`+colBlockNum+`, `+colBlockChecksum+`, `+colLastSuperBlockChecksum+`,
			`+colLastSuperBlockNum+`, `+colSuperBlockSegments+`, `+colWalletStateChecksum+`,
			`+colTimestamp+`
		) VALUES (?,?,?,?,?,?,?)`,
			b.Num, b.Checksum, b.LastSuperBlockChecksum, b.LastSuperBlockNum,
			encodeSegments(b.SuperBlockSegments), b.WalletStateChecksum, b.Timestamp,
		)
		if err != nil {
			return errors.Wrap(err, "insert super block")
		}
	}
	return nil
}

// InsertTransaction persists tx into the shard holding its applied block
// (spec.md §4.D "Insert transaction"). Data is byte-shuffled before write,
// the storage convention spec.md §4.D requires preserved bit-for-bit.
func (s *Store) InsertTransaction(tx *Transaction) error {
	db, err := s.seek(tx.Applied)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT OR REPLACE INTO `+TableTransactions+` (
		`+colTxID+`, `+colTxType+`, `+colTxAmount+`, `+colTxFee+`, `+colTxToList+`,
		`+colTxData+`, `+colTxBlockHeight+`, `+colTxNonce+`, `+colTxTimestamp+`,
		`+colTxChecksum+`, `+colTxSignature+`, `+colTxPubKey+`, `+colTxApplied+`,
		`+colTxVersion+`, `+colTxFromList+`, `+colTxDataChecksum+`
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		encodeLegacyTxID(tx.ID), tx.Type, bigIntText(tx.Amount), bigIntText(tx.Fee),
		encodeAddrAmountList(tx.ToList), shuffle(tx.Data), tx.BlockHeight, tx.Nonce,
		tx.Timestamp, tx.Checksum, tx.Signature, tx.Pubkey, tx.Applied, tx.Version,
		encodeAddrAmountList(tx.FromList), tx.DataChecksum,
	)
	if err != nil {
		return errors.Wrap(err, "insert transaction")
	}
	return nil
}

// RemoveBlock deletes block n and every transaction applied in it. Only
// permitted on non-archival stores (spec.md §4.D "Remove block").
func (s *Store) RemoveBlock(n uint64) error {
	if s.archival {
		return ErrArchivalRequired
	}
	db, err := s.seek(n)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM `+TableTransactions+` WHERE `+colTxApplied+` = ?`, n); err != nil {
		return errors.Wrap(err, "remove block's transactions")
	}
	if _, err := db.Exec(`DELETE FROM `+TableBlocks+` WHERE `+colBlockNum+` = ?`, n); err != nil {
		return errors.Wrap(err, "remove block")
	}
	return nil
}

// RemoveTransaction deletes the transaction applied in block appliedIn with
// the given id. Only permitted on non-archival stores (spec.md §4.D "Remove
// transaction").
func (s *Store) RemoveTransaction(appliedIn uint64, id []byte) error {
	if s.archival {
		return ErrArchivalRequired
	}
	db, err := s.seek(appliedIn)
	if err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM `+TableTransactions+` WHERE `+colTxID+` = ?`, encodeLegacyTxID(id))
	if err != nil {
		return errors.Wrap(err, "remove transaction")
	}
	return nil
}

func bigIntText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
