package catalog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/pkg/common/constant"
	"github.com/winforge/fived-engine/pkg/infra"
	"github.com/winforge/fived-engine/pkg/kvstore"
	"github.com/winforge/fived-engine/pkg/retry"
)

// Cache holds the full combination catalog resident in memory for the
// process lifetime. The catalog is immutable, so entries never expire and
// the populated cache is shared across workers with no locking on the read
// path.
type Cache struct {
	store  kvstore.KVStore
	logger *slog.Logger

	mu     sync.RWMutex
	combos []game.Combination
	loaded bool
}

func NewCache(store kvstore.KVStore, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger}
}

// Load populates the cache from the durable catalog table. Idempotent: a
// populated cache returns immediately. The read is retried a few times
// before giving up with ErrCacheLoad.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	var pairs []*kvstore.KVPair
	err := retry.Constant(func() error {
		var listErr error
		pairs, listErr = c.store.List(constant.KVPrefixCatalog + "/")
		return listErr
	}, 500*time.Millisecond, retry.DefaultMaxAttempts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheLoad, err)
	}
	if len(pairs) != game.CatalogSize {
		return fmt.Errorf("%w: table has %d entries, want %d", ErrCacheLoad, len(pairs), game.CatalogSize)
	}

	combos := make([]game.Combination, game.CatalogSize)
	seen := make([]bool, game.CatalogSize)
	for _, pair := range pairs {
		var entry game.Combination
		if err := infra.JSON.Unmarshal(pair.Value, &entry); err != nil {
			return fmt.Errorf("%w: bad entry at %s: %v", ErrCacheLoad, pair.Key, err)
		}
		if entry.Index >= game.CatalogSize || seen[entry.Index] {
			return fmt.Errorf("%w: bad or duplicate index at %s", ErrCacheLoad, pair.Key)
		}
		// Derived attributes must agree with the enumeration; a mismatch
		// means the table is corrupt.
		if entry != game.FromIndex(entry.Index) {
			return fmt.Errorf("%w: entry %s disagrees with enumeration", ErrCacheLoad, pair.Key)
		}
		combos[entry.Index] = entry
		seen[entry.Index] = true
	}

	c.combos = combos
	c.loaded = true
	c.logger.Info("Combination catalog loaded", "entries", len(combos))
	return nil
}

// Loaded reports whether Load has completed.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Get returns the cached combination for a canonical key.
func (c *Cache) Get(key string) (game.Combination, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return game.Combination{}, false
	}
	combo, err := game.ParseKey(key)
	if err != nil {
		return game.Combination{}, false
	}
	return c.combos[combo.Index], true
}

// At implements Source. Only valid after Load.
func (c *Cache) At(index uint32) game.Combination {
	return c.combos[index]
}

// Len implements Source.
func (c *Cache) Len() uint32 {
	return uint32(len(c.combos))
}

// All returns a lazy, restartable iterator over the full catalog.
func (c *Cache) All() func(yield func(game.Combination) bool) {
	return func(yield func(game.Combination) bool) {
		c.mu.RLock()
		combos := c.combos
		c.mu.RUnlock()
		for _, combo := range combos {
			if !yield(combo) {
				return
			}
		}
	}
}
