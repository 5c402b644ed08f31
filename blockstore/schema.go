// Package blockstore implements the sharded, block-addressable persistent
// store (spec.md §4.D): blocks and transactions bucketed into rolling
// SQLite-backed shards by block number, plus a dedicated super-block side
// database. Table/column naming below follows the constant-per-field idiom
// the teacher uses for its own chain database schema
// (erigon-lib/kv/tables.go), adapted to this module's SQL-backed store.
package blockstore

// Table names (spec.md §6).
const (
	TableBlocks       = "blocks"
	TableTransactions = "transactions"
)

// Super-block side database table (spec.md §3/§4.D: "a dedicated side
// database (superblocks.dat) keyed by block number with indexes on
// blockChecksum and lastSuperBlockChecksum").
const TableSuperBlocks = "superblocks"

// blocks columns present from the first schema version.
const (
	colBlockNum              = "blockNum"
	colBlockChecksum         = "blockChecksum"
	colLastBlockChecksum     = "lastBlockChecksum"
	colWalletStateChecksum   = "walletStateChecksum"
	colSigFreezeChecksum     = "sigFreezeChecksum"
	colDifficulty            = "difficulty"
	colPowField              = "powField"
	colTransactions          = "transactions"
	colSignatures            = "signatures"
	colTimestamp             = "timestamp"
	colVersion               = "version"
)

// blocks columns added by schema migration (spec.md §4.D "Schema
// migrations"), each introduced for forward compatibility with shard
// files written before the column existed.
const (
	colLastSuperBlockChecksum = "lastSuperBlockChecksum"
	colLastSuperBlockNum      = "lastSuperBlockNum"
	colSuperBlockSegments     = "superBlockSegments"
	colCompactedSigs          = "compactedSigs"
	colBlockProposer          = "blockProposer"
)

// transactions columns present from the first schema version.
const (
	colTxID          = "id"
	colTxType        = "type"
	colTxAmount      = "amount"
	colTxFee         = "fee"
	colTxToList      = "toList"
	colTxData        = "data"
	colTxBlockHeight = "blockHeight"
	colTxNonce       = "nonce"
	colTxTimestamp   = "timestamp"
	colTxChecksum    = "checksum"
	colTxSignature   = "signature"
	colTxPubKey      = "pubKey"
	colTxApplied     = "applied"
	colTxVersion     = "version"
)

// transactions columns added by schema migration.
const (
	colTxFromList     = "fromList"
	colTxDataChecksum = "dataChecksum"
)

const createBlocksTable = `CREATE TABLE IF NOT EXISTS ` + TableBlocks + ` (
	` + colBlockNum + ` INTEGER PRIMARY KEY,
	` + colBlockChecksum + ` BLOB,
	` + colLastBlockChecksum + ` BLOB,
	` + colWalletStateChecksum + ` BLOB,
	` + colSigFreezeChecksum + ` BLOB,
	` + colDifficulty + ` INTEGER,
	` + colPowField + ` BLOB,
	` + colTransactions + ` TEXT,
	` + colSignatures + ` TEXT,
	` + colTimestamp + ` INTEGER,
	` + colVersion + ` INTEGER
)`

const createTransactionsTable = `CREATE TABLE IF NOT EXISTS ` + TableTransactions + ` (
	` + colTxID + ` TEXT PRIMARY KEY,
	` + colTxType + ` INTEGER,
	` + colTxAmount + ` TEXT,
	` + colTxFee + ` TEXT,
	` + colTxToList + ` TEXT,
	` + colTxData + ` BLOB,
	` + colTxBlockHeight + ` INTEGER,
	` + colTxNonce + ` INTEGER,
	` + colTxTimestamp + ` INTEGER,
	` + colTxChecksum + ` BLOB,
	` + colTxSignature + ` BLOB,
	` + colTxPubKey + ` BLOB,
	` + colTxApplied + ` INTEGER,
	` + colTxVersion + ` INTEGER
)`

const createSuperBlocksTable = `CREATE TABLE IF NOT EXISTS ` + TableSuperBlocks + ` (
	` + colBlockNum + ` INTEGER PRIMARY KEY,
	` + colBlockChecksum + ` BLOB,
	` + colLastSuperBlockChecksum + ` BLOB,
	` + colLastSuperBlockNum + ` INTEGER,
	` + colSuperBlockSegments + ` BLOB,
	` + colWalletStateChecksum + ` BLOB,
	` + colTimestamp + ` INTEGER
)`

// migrationColumn describes one spec.md §4.D forward-compatibility column
// and the index (if any) it requires.
type migrationColumn struct {
	table     string
	column    string
	sqlType   string
	indexName string
}

var blockMigrations = []migrationColumn{
	{TableBlocks, colLastSuperBlockChecksum, "BLOB", "idx_blocks_last_super_block_checksum"},
	{TableBlocks, colLastSuperBlockNum, "INTEGER", ""},
	{TableBlocks, colSuperBlockSegments, "BLOB", ""},
	{TableBlocks, colCompactedSigs, "INTEGER", ""},
	{TableBlocks, colBlockProposer, "BLOB", ""},
}

var txMigrations = []migrationColumn{
	{TableTransactions, colTxFromList, "TEXT", "idx_transactions_from_list"},
	{TableTransactions, colTxDataChecksum, "BLOB", ""},
}

// baseIndexes are created on every shard database.
var baseIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_transactions_type ON ` + TableTransactions + `(` + colTxType + `)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_to_list ON ` + TableTransactions + `(` + colTxToList + `)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_applied ON ` + TableTransactions + `(` + colTxApplied + `)`,
}

// superBlockIndexes are created on the super-block side database.
var superBlockIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_superblocks_checksum ON ` + TableSuperBlocks + `(` + colBlockChecksum + `)`,
	`CREATE INDEX IF NOT EXISTS idx_superblocks_last_checksum ON ` + TableSuperBlocks + `(` + colLastSuperBlockChecksum + `)`,
}
