package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/pkg/infra"
	"github.com/winforge/fived-engine/pkg/kvstore"
)

func newLoadedCache(t *testing.T) *Cache {
	t.Helper()
	store := kvstore.NewMemoryStore("", infra.JSON)
	require.NoError(t, Generate(store))

	cache := NewCache(store, nil)
	require.NoError(t, cache.Load())
	return cache
}

func TestCache_RoundTrip(t *testing.T) {
	cache := newLoadedCache(t)

	// Every cached entry must agree with direct enumeration.
	for _, index := range []uint32{0, 1, 7345, 42424, 99999} {
		c := game.FromIndex(index)
		got, ok := cache.Get(c.Key())
		require.True(t, ok, "key %s", c.Key())
		assert.Equal(t, c, got)
	}
	assert.Equal(t, uint32(game.CatalogSize), cache.Len())
}

func TestCache_LoadIdempotent(t *testing.T) {
	store := kvstore.NewMemoryStore("", infra.JSON)
	require.NoError(t, Generate(store))

	cache := NewCache(store, nil)
	require.NoError(t, cache.Load())
	require.True(t, cache.Loaded())

	// A second load returns immediately without re-reading; even wiping the
	// table underneath must not disturb the resident cache.
	require.NoError(t, store.Delete("catalog/00000"))
	require.NoError(t, cache.Load())

	_, ok := cache.Get("00000")
	assert.True(t, ok)
}

func TestCache_LoadFailsOnIncompleteTable(t *testing.T) {
	store := kvstore.NewMemoryStore("", infra.JSON)
	// Only a handful of rows: the table is unusable.
	require.NoError(t, store.SetAny("catalog/00000", game.FromIndex(0)))
	require.NoError(t, store.SetAny("catalog/00001", game.FromIndex(1)))

	cache := NewCache(store, nil)
	err := cache.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheLoad)
	assert.False(t, cache.Loaded())

	_, ok := cache.Get("00000")
	assert.False(t, ok)
}

func TestCache_LoadFailsOnCorruptEntry(t *testing.T) {
	store := kvstore.NewMemoryStore("", infra.JSON)
	require.NoError(t, Generate(store))

	// Corrupt one row: declared sum disagrees with its digits.
	bad := game.FromIndex(7)
	bad.Sum = 44
	require.NoError(t, store.SetAny("catalog/00007", bad))

	cache := NewCache(store, nil)
	err := cache.Load()
	assert.ErrorIs(t, err, ErrCacheLoad)
}

func TestCache_GetBeforeLoad(t *testing.T) {
	cache := NewCache(kvstore.NewMemoryStore("", infra.JSON), nil)
	_, ok := cache.Get("00042")
	assert.False(t, ok)
}

func TestCache_All(t *testing.T) {
	cache := newLoadedCache(t)

	var count int
	var first game.Combination
	for c := range cache.All() {
		if count == 0 {
			first = c
		}
		count++
		if count == 1000 {
			break // iterator is lazy and interruptible
		}
	}
	assert.Equal(t, 1000, count)
	assert.Equal(t, game.FromIndex(0), first)

	// Restartable: a fresh iteration starts over.
	for c := range cache.All() {
		assert.Equal(t, game.FromIndex(0), c)
		break
	}
}

func TestEnumerator(t *testing.T) {
	e := Enumerator{}
	assert.Equal(t, uint32(game.CatalogSize), e.Len())
	assert.Equal(t, game.FromIndex(54321), e.At(54321))
}
