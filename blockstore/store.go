package blockstore

import (
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/silverpine/wsjnode/dlog"
	"github.com/silverpine/wsjnode/mathx"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Options configures a Store (spec.md §4.D).
type Options struct {
	BaseDir        string        // parent of the "0000" shard directory
	MaxBlocksPerDB uint64        // shard window size
	Archival       bool          // archival nodes retain everything; only non-archival nodes may remove blocks/transactions
	Vacuum         bool          // VACUUM every shard at startup
	MaxIdle        time.Duration // connection-cache idle timeout, 0 = default 60s
	HardCap        int           // connection-cache hard cap, 0 = default 50
	Log            dlog.Logger
}

// Store is the sharded block/transaction store (spec.md §4.D). Two
// independent locks guard it: shardMu around the active shard connection,
// superMu around the super-block side connection. A thread may hold both
// only in the order superMu -> shardMu (spec.md §5).
type Store struct {
	baseDir        string
	maxBlocksPerDB uint64
	archival       bool
	vacuum         bool
	log            dlog.Logger

	conns *ConnCache

	shardMu    sync.Mutex
	activePath string

	superMu sync.Mutex
	superDB *sql.DB

	dirLock *flock.Flock

	tip     int64 // -1 means unknown/empty
	running int32 // atomic bool; 0 = not yet started, 1 = running, 2 = shut down
}

// Open constructs a Store. Call Bootstrap before using it.
func Open(opts Options) (*Store, error) {
	if opts.MaxBlocksPerDB == 0 {
		return nil, errors.New("blockstore: MaxBlocksPerDB must be > 0")
	}
	log := opts.Log
	if log == nil {
		log = dlog.Nop{}
	}
	s := &Store{
		baseDir:        opts.BaseDir,
		maxBlocksPerDB: opts.MaxBlocksPerDB,
		archival:       opts.Archival,
		vacuum:         opts.Vacuum,
		log:            log,
		conns:          NewConnCache(opts.MaxIdle, opts.HardCap, log),
		tip:            -1,
	}
	return s, nil
}

// Bootstrap performs spec.md §4.D "Startup": delete stray write-ahead
// files, open the super-block side database, optionally VACUUM every
// shard (when vacuum or Options.Vacuum is set), then locate the tip.
// Idempotent and safe to call on every process start (SPEC_FULL.md §3):
// a call on a store that is already running returns nil.
func (s *Store) Bootstrap(vacuum bool) error {
	if s.isRunning() {
		return nil
	}
	dir := shardDir(s.baseDir)
	lock := flock.New(dir + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "lock shard directory")
	}
	if !locked {
		return errors.New("blockstore: shard directory locked by another process")
	}
	s.dirLock = lock

	if err := removeStrayWALFiles(dir); err != nil {
		return err
	}

	superDB, err := openDB(superBlockPath(s.baseDir), true)
	if err != nil {
		return err
	}
	s.superDB = superDB

	if vacuum || s.vacuum {
		if err := s.vacuumAllShards(); err != nil {
			s.log.Warnw("blockstore: vacuum failed", "err", err)
		}
	}

	// seekLatest opens the last shard through seek, which refuses to run
	// until the store is marked running.
	atomic.StoreInt32(&s.running, 1)
	if err := s.seekLatest(); err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	return nil
}

// Close shuts down the store: short-circuits new seeks, drains the
// connection cache, and releases the directory lock.
func (s *Store) Close() error {
	atomic.StoreInt32(&s.running, 2)
	s.conns.CloseAll()
	s.superMu.Lock()
	if s.superDB != nil {
		_ = s.superDB.Close()
		s.superDB = nil
	}
	s.superMu.Unlock()
	if s.dirLock != nil {
		return s.dirLock.Unlock()
	}
	return nil
}

func (s *Store) isRunning() bool { return atomic.LoadInt32(&s.running) == 1 }

// Tip returns the highest cached block number, or 0 if the store is empty.
func (s *Store) Tip() uint64 {
	t := atomic.LoadInt64(&s.tip)
	if t < 0 {
		return 0
	}
	return uint64(t)
}

func (s *Store) setTip(n uint64) {
	for {
		cur := atomic.LoadInt64(&s.tip)
		if cur >= 0 && uint64(cur) >= n {
			return
		}
		if atomic.CompareAndSwapInt64(&s.tip, cur, int64(n)) {
			return
		}
	}
}

// seek opens (lazily creating) the shard holding block number n and marks
// it as the active shard (spec.md §4.D "Shard selection").
func (s *Store) seek(n uint64) (*sql.DB, error) {
	if !s.isRunning() {
		return nil, errors.New("blockstore: store not running")
	}
	path := s.shardPath(n)
	s.shardMu.Lock()
	defer s.shardMu.Unlock()
	db, err := s.conns.GetOrOpen(path, path, func() (*sql.DB, error) { return openDB(path, false) })
	if err != nil {
		return nil, err
	}
	s.activePath = path
	return db, nil
}

// seekLatest probes shard windows 0, MAX, 2*MAX, ... for file existence
// until a gap is found, seeks to the last existing shard, and caches
// MAX(blockNum) as the tip (spec.md §4.D "Startup").
func (s *Store) seekLatest() error {
	var lastExisting uint64
	found := false
	for shardStart := uint64(0); ; {
		path := s.shardPath(shardStart)
		if !fileExists(path) {
			break
		}
		lastExisting = shardStart
		found = true

		next, overflow := mathx.SafeAdd(shardStart, s.maxBlocksPerDB)
		if overflow {
			break
		}
		shardStart = next
	}
	if !found {
		s.tip = -1
		return nil
	}
	db, err := s.seek(lastExisting)
	if err != nil {
		return err
	}
	var max sql.NullInt64
	row := db.QueryRow(`SELECT MAX(` + colBlockNum + `) FROM ` + TableBlocks)
	if err := row.Scan(&max); err != nil {
		return errors.Wrap(err, "seek latest: MAX(blockNum)")
	}
	if max.Valid && max.Int64 >= 0 {
		s.setTip(uint64(max.Int64))
	}
	return nil
}

func (s *Store) vacuumAllShards() error {
	shardStart := uint64(0)
	for {
		path := s.shardPath(shardStart)
		if !fileExists(path) {
			break
		}
		db, err := openDB(path, false)
		if err != nil {
			return err
		}
		_, err = db.Exec("VACUUM")
		db.Close()
		if err != nil {
			return err
		}
		next, overflow := mathx.SafeAdd(shardStart, s.maxBlocksPerDB)
		if overflow {
			break
		}
		shardStart = next
	}
	return nil
}

// CacheStats exposes the connection cache's operational counters
// (SPEC_FULL.md §3).
func (s *Store) CacheStats() CacheStats { return s.conns.Stats() }
