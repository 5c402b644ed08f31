package blockstore

import (
	"database/sql"
	"math/big"

	"github.com/pkg/errors"
)

// transactionSearchWindow bounds how many shards TransactionByID will scan
// forward from the shard its decoded block height suggests, before giving
// up (spec.md §4.D "Read transaction by id").
const transactionSearchWindow = 4

// BlockByNumber returns the block stored at n, or ErrNotFound when n
// exceeds the cached tip (spec.md §4.D "Read block by number").
func (s *Store) BlockByNumber(n uint64) (*Block, error) {
	if n > s.Tip() {
		return nil, ErrNotFound
	}
	db, err := s.seek(n)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(blockSelect+` WHERE `+colBlockNum+` = ?`, n)
	return scanBlock(row)
}

// BlockByHash tries the active shard first, then walks shards downward
// from the tip (spec.md §4.D "Read block by hash").
func (s *Store) BlockByHash(hash []byte) (*Block, error) {
	if s.activePath != "" {
		db, err := s.conns.GetOrOpen(s.activePath, s.activePath, func() (*sql.DB, error) { return openDB(s.activePath, false) })
		if err == nil {
			if b, err := scanBlock(db.QueryRow(blockSelect+` WHERE `+colBlockChecksum+` = ?`, hash)); err == nil {
				return b, nil
			}
		}
	}
	tip := s.Tip()
	shardStart := shardNumberFor(tip, s.maxBlocksPerDB)
	for {
		db, err := s.seek(shardStart)
		if err == nil {
			if b, err := scanBlock(db.QueryRow(blockSelect+` WHERE `+colBlockChecksum+` = ?`, hash)); err == nil {
				return b, nil
			}
		}
		if shardStart == 0 {
			break
		}
		shardStart -= s.maxBlocksPerDB
	}
	return nil, ErrNotFound
}

// TransactionByID tries the currently active shard, then decodes the block
// height embedded in id and scans forward through a bounded window of
// shards (spec.md §4.D "Read transaction by id").
func (s *Store) TransactionByID(id []byte) (*Transaction, error) {
	legacy := encodeLegacyTxID(id)

	if s.activePath != "" {
		db, err := s.conns.GetOrOpen(s.activePath, s.activePath, func() (*sql.DB, error) { return openDB(s.activePath, false) })
		if err == nil {
			if tx, err := scanTransaction(db.QueryRow(txSelect+` WHERE `+colTxID+` = ?`, legacy)); err == nil {
				return tx, nil
			}
		}
	}

	height, err := txIDBlockHeight(id)
	if err != nil {
		return nil, err
	}
	shardStart := shardNumberFor(height, s.maxBlocksPerDB)
	for i := 0; i < transactionSearchWindow; i++ {
		db, err := s.seek(shardStart)
		if err == nil {
			if tx, err := scanTransaction(db.QueryRow(txSelect+` WHERE `+colTxID+` = ?`, legacy)); err == nil {
				return tx, nil
			}
		}
		shardStart += s.maxBlocksPerDB
	}
	return nil, ErrNotFound
}

// SuperBlockByHash looks up a super-block by its block checksum directly
// against the side database's idx_superblocks_checksum index (spec.md §3/
// §4.D: "Hash-lookup for super-blocks uses the side DB directly").
func (s *Store) SuperBlockByHash(hash []byte) (*SuperBlockRecord, error) {
	s.superMu.Lock()
	defer s.superMu.Unlock()
	if s.superDB == nil {
		return nil, errors.New("blockstore: store not running")
	}
	row := s.superDB.QueryRow(superBlockSelect+` WHERE `+colBlockChecksum+` = ?`, hash)
	return scanSuperBlock(row)
}

// SuperBlockByNumber looks up a super-block by its block number against the
// side database (spec.md §3/§4.D).
func (s *Store) SuperBlockByNumber(n uint64) (*SuperBlockRecord, error) {
	s.superMu.Lock()
	defer s.superMu.Unlock()
	if s.superDB == nil {
		return nil, errors.New("blockstore: store not running")
	}
	row := s.superDB.QueryRow(superBlockSelect+` WHERE `+colBlockNum+` = ?`, n)
	return scanSuperBlock(row)
}

const superBlockSelect = `SELECT ` +
	colBlockNum + `, ` + colBlockChecksum + `, ` + colLastSuperBlockChecksum + `, ` +
	colLastSuperBlockNum + `, ` + colSuperBlockSegments + `, ` + colWalletStateChecksum + `, ` +
	colTimestamp +
	` FROM ` + TableSuperBlocks

func scanSuperBlock(row rowScanner) (*SuperBlockRecord, error) {
	var (
		rec               SuperBlockRecord
		lastSuperChecksum sql.NullString
		segBytes          []byte
	)
	err := row.Scan(
		&rec.Num, &rec.Checksum, &lastSuperChecksum, &rec.LastSuperBlockNum,
		&segBytes, &rec.WalletStateChecksum, &rec.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan super block")
	}
	if lastSuperChecksum.Valid {
		rec.LastSuperBlockChecksum = []byte(lastSuperChecksum.String)
	}
	rec.SuperBlockSegments, err = decodeSegments(segBytes)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TransactionsInBlock returns every transaction applied in block n,
// optionally filtered by type (spec.md §4.D "Read transactions in block").
func (s *Store) TransactionsInBlock(n uint64, typeFilter *uint32) ([]*Transaction, error) {
	db, err := s.seek(n)
	if err != nil {
		return nil, err
	}
	query := txSelect + ` WHERE ` + colTxApplied + ` = ?`
	args := []interface{}{n}
	if typeFilter != nil {
		query += ` AND ` + colTxType + ` = ?`
		args = append(args, *typeFilter)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query transactions in block")
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		tx, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

const blockSelect = `SELECT ` +
	colBlockNum + `, ` + colBlockChecksum + `, ` + colLastBlockChecksum + `, ` +
	colWalletStateChecksum + `, ` + colSigFreezeChecksum + `, ` + colDifficulty + `, ` +
	colPowField + `, ` + colTransactions + `, ` + colSignatures + `, ` + colTimestamp + `, ` +
	colVersion + `, ` + colLastSuperBlockChecksum + `, ` + colLastSuperBlockNum + `, ` +
	colSuperBlockSegments + `, ` + colCompactedSigs + `, ` + colBlockProposer +
	` FROM ` + TableBlocks

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (*Block, error) {
	var (
		b                      Block
		txList, sigList        string
		lastSuperChecksum      sql.NullString
		proposer               sql.NullString
		segBytes, powField     []byte
		compactedSigs          bool
	)
	err := row.Scan(
		&b.Num, &b.Checksum, &b.PrevChecksum, &b.WalletStateChecksum, &b.SigFreezeChecksum,
		&b.Difficulty, &powField, &txList, &sigList, &b.Timestamp, &b.Version,
		&lastSuperChecksum, &b.LastSuperBlockNum, &segBytes, &compactedSigs, &proposer,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan block")
	}
	b.PowField = powField
	b.CompactedSigs = compactedSigs
	if lastSuperChecksum.Valid {
		b.LastSuperBlockChecksum = []byte(lastSuperChecksum.String)
	}
	if proposer.Valid {
		b.BlockProposer = []byte(proposer.String)
	}
	b.TxIDs, err = decodeTxIDList(txList)
	if err != nil {
		return nil, err
	}
	b.Signatures, err = decodeSignatureList(sigList)
	if err != nil {
		return nil, err
	}
	b.SuperBlockSegments, err = decodeSegments(segBytes)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const txSelect = `SELECT ` +
	colTxID + `, ` + colTxType + `, ` + colTxAmount + `, ` + colTxFee + `, ` + colTxToList + `, ` +
	colTxData + `, ` + colTxBlockHeight + `, ` + colTxNonce + `, ` + colTxTimestamp + `, ` +
	colTxChecksum + `, ` + colTxSignature + `, ` + colTxPubKey + `, ` + colTxApplied + `, ` +
	colTxVersion + `, ` + colTxFromList + `, ` + colTxDataChecksum +
	` FROM ` + TableTransactions

func scanTransaction(row rowScanner) (*Transaction, error) {
	return scanTransactionDest(row)
}

func scanTransactionRows(rows *sql.Rows) (*Transaction, error) {
	return scanTransactionDest(rows)
}

func scanTransactionDest(row rowScanner) (*Transaction, error) {
	var (
		tx                       Transaction
		idText, amountText, feeText string
		toListText, fromListText string
		data                     []byte
	)
	err := row.Scan(
		&idText, &tx.Type, &amountText, &feeText, &toListText, &data, &tx.BlockHeight,
		&tx.Nonce, &tx.Timestamp, &tx.Checksum, &tx.Signature, &tx.Pubkey, &tx.Applied,
		&tx.Version, &fromListText, &tx.DataChecksum,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan transaction")
	}
	tx.ID, err = decodeLegacyTxID(idText)
	if err != nil {
		return nil, err
	}
	tx.Amount, _ = new(big.Int).SetString(amountText, 10)
	tx.Fee, _ = new(big.Int).SetString(feeText, 10)
	tx.ToList, err = decodeAddrAmountList(toListText)
	if err != nil {
		return nil, err
	}
	tx.FromList, err = decodeAddrAmountList(fromListText)
	if err != nil {
		return nil, err
	}
	tx.Data = unshuffle(data)
	return &tx, nil
}
