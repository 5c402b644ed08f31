package blockstore

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeOpen(t *testing.T) func() (*sql.DB, error) {
	t.Helper()
	return func() (*sql.DB, error) {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		return db, nil
	}
}

func TestConnCacheReusesConnection(t *testing.T) {
	c := NewConnCache(time.Hour, 50, nil)
	defer c.CloseAll()

	db1, err := c.GetOrOpen("shard-a", "shard-a", fakeOpen(t))
	require.NoError(t, err)
	db2, err := c.GetOrOpen("shard-a", "shard-a", fakeOpen(t))
	require.NoError(t, err)
	require.Same(t, db1, db2)
	require.Equal(t, 1, c.Stats().Hits)
}

func TestConnCacheIdleEviction(t *testing.T) {
	c := NewConnCache(time.Millisecond, 50, nil)
	defer c.CloseAll()

	_, err := c.GetOrOpen("shard-a", "shard-a", fakeOpen(t))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// accessing a different shard triggers the sweep; shard-a is idle and
	// not the active one, so it is evicted.
	_, err = c.GetOrOpen("shard-b", "shard-b", fakeOpen(t))
	require.NoError(t, err)

	stats := c.Stats()
	require.Equal(t, 1, stats.Evictions)
	require.Equal(t, 1, stats.Open)
}

func TestConnCacheHardCapNeverEvictsActive(t *testing.T) {
	c := NewConnCache(time.Hour, 1, nil)
	defer c.CloseAll()

	_, err := c.GetOrOpen("shard-a", "shard-a", fakeOpen(t))
	require.NoError(t, err)
	_, err = c.GetOrOpen("shard-b", "shard-b", fakeOpen(t))
	require.NoError(t, err)

	// active shard is shard-b; hard cap is 1, so shard-a must be evicted,
	// never shard-b.
	stats := c.Stats()
	require.Equal(t, 1, stats.Open)
	require.Equal(t, 1, stats.Evictions)

	db, err := c.GetOrOpen("shard-b", "shard-b", fakeOpen(t))
	require.NoError(t, err)
	require.NotNil(t, db)
}
