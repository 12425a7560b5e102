package mint

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/db"
	"github.com/ringops/ringstats/internal/db/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(id catalog.ItemID) CacheEntry {
	return CacheEntry{
		ItemID:    id,
		MintDate:  "2023/11/14 22:13:20",
		Initiator: "0x9999999999999999999999999999999999999999",
		TxHash:    "0xmint",
		UpdatedAt: "2027/01/15 08:00:00",
	}
}

func exerciseCache(t *testing.T, cache ProvenanceCache) {
	t.Helper()
	ctx := context.Background()

	_, found, err := cache.Get(ctx, item67)
	require.NoError(t, err)
	assert.False(t, found)

	entry := sampleEntry(item67)
	require.NoError(t, cache.Put(ctx, entry))

	got, found, err := cache.Get(ctx, item67)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry, got)
	assert.True(t, got.Complete())

	// 670 shares a prefix with 67 and must stay a miss
	_, found, err = cache.Get(ctx, item670)
	require.NoError(t, err)
	assert.False(t, found)

	entry.TxHash = "0xreplaced"
	require.NoError(t, cache.Put(ctx, entry))
	got, _, err = cache.Get(ctx, item67)
	require.NoError(t, err)
	assert.Equal(t, "0xreplaced", got.TxHash)
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache())
}

func TestSqliteCache(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	exerciseCache(t, NewSqliteCache(sqlite))
}

func TestSqliteCache_Persists(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, NewSqliteCache(sqlite).Put(ctx, sampleEntry(item67)))

	got, found, err := NewSqliteCache(sqlite).Get(ctx, item67)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0xmint", got.TxHash)
}

func TestSqliteCache_QueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT mint_date, initiator_address, tx_hash, updated_at FROM tx_cache").
		WillReturnError(assert.AnError)

	_, found, err := NewSqliteCache(sqlDB).Get(context.Background(), item67)
	assert.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgerCache(t *testing.T) {
	badgerDB, err := db.OpenBadgerInMemory()
	require.NoError(t, err)
	defer badgerDB.Close()

	exerciseCache(t, NewBadgerCache(badgerDB))
}

func TestLayeredCache(t *testing.T) {
	front := NewMemoryCache()
	back := NewMemoryCache()
	exerciseCache(t, NewLayeredCache(front, back))

	ctx := context.Background()
	_, found, _ := back.Get(ctx, item67)
	assert.True(t, found)

	// entries only in the durable layer warm the front on read
	require.NoError(t, back.Put(ctx, sampleEntry(item670)))
	_, found, err := NewLayeredCache(front, back).Get(ctx, item670)
	require.NoError(t, err)
	assert.True(t, found)
	_, found, _ = front.Get(ctx, item670)
	assert.True(t, found)
}

func TestNewProvenanceCache(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()
	badgerDB, err := db.OpenBadgerInMemory()
	require.NoError(t, err)
	defer badgerDB.Close()

	cache, err := NewProvenanceCache(CacheBackendMemory, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, cache)

	cache, err = NewProvenanceCache(CacheBackendSqlite, sqlite, nil)
	require.NoError(t, err)
	assert.IsType(t, &LayeredCache{}, cache)

	cache, err = NewProvenanceCache(CacheBackendBadger, nil, badgerDB)
	require.NoError(t, err)
	assert.IsType(t, &LayeredCache{}, cache)

	_, err = NewProvenanceCache(CacheBackendBadger, nil, nil)
	assert.Error(t, err)
	_, err = NewProvenanceCache("redis", sqlite, badgerDB)
	assert.Error(t, err)
}
