package blockstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrShardAbsent names the spec.md §7 "shard-absent" error kind. The read
// operations do not return it: BlockByNumber reports a block number above
// the stored tip as ErrNotFound.
var ErrShardAbsent = errors.New("blockstore: shard absent")

// shardDir is the fixed layout directory under base (spec.md §6:
// "<base>/0000/<shard>.dat").
func shardDir(base string) string { return filepath.Join(base, "0000") }

// shardNumberFor computes floor(n/max)*max (spec.md §4.D "Shard
// selection").
func shardNumberFor(n, max uint64) uint64 {
	return (n / max) * max
}

// shardPath returns the file path for the shard holding block number n.
func (s *Store) shardPath(n uint64) string {
	shardNum := shardNumberFor(n, s.maxBlocksPerDB)
	return filepath.Join(shardDir(s.baseDir), fmt.Sprintf("%d.dat", shardNum))
}

// superBlockPath is the dedicated side database path (spec.md §6).
func superBlockPath(base string) string {
	return filepath.Join(shardDir(base), "superblocks.dat")
}

// openDB opens (creating if absent) a sqlite database in WAL journal mode
// and runs schema creation/migration against it.
func openDB(path string, isSuperBlock bool) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir shard dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open shard")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}
	db.SetMaxOpenConns(1) // one writer at a time per shard (spec.md §5)

	if isSuperBlock {
		if _, err := db.Exec(createSuperBlocksTable); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create superblocks table")
		}
	} else {
		if _, err := db.Exec(createBlocksTable); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create blocks table")
		}
		if _, err := db.Exec(createTransactionsTable); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create transactions table")
		}
		if err := migrateColumns(db, blockMigrations); err != nil {
			db.Close()
			return nil, err
		}
		if err := migrateColumns(db, txMigrations); err != nil {
			db.Close()
			return nil, err
		}
	}
	indexes := baseIndexes
	if isSuperBlock {
		indexes = superBlockIndexes
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create index")
		}
	}
	return db, nil
}

// migrateColumns introspects each migration's table and adds its column
// (plus index, if named) when missing (spec.md §4.D "Schema migrations").
func migrateColumns(db *sql.DB, cols []migrationColumn) error {
	for _, m := range cols {
		has, err := hasColumn(db, m.table, m.column)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.sqlType)
		if _, err := db.Exec(alter); err != nil {
			return errors.Wrapf(err, "add column %s.%s", m.table, m.column)
		}
		if m.indexName != "" {
			idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", m.indexName, m.table, m.column)
			if _, err := db.Exec(idx); err != nil {
				return errors.Wrapf(err, "create index %s", m.indexName)
			}
		}
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, errors.Wrap(err, "introspect table")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &primaryKey); err != nil {
			return false, errors.Wrap(err, "scan table_info")
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// removeStrayWALFiles deletes leftover *.dat-shm / *.dat-wal files in dir
// (spec.md §4.D "Startup").
func removeStrayWALFiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read shard dir")
	}
	for _, e := range entries {
		name := e.Name()
		if hasSuffixAny(name, ".dat-shm", ".dat-wal") {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
	return nil
}

func hasSuffixAny(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if len(s) >= len(suf) && s[len(s)-len(suf):] == suf {
			return true
		}
	}
	return false
}

// fileExists reports whether path names a regular, readable file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
