package catalog

import (
	"fmt"

	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/pkg/common/constant"
	"github.com/winforge/fived-engine/pkg/kvstore"
)

// Generate writes the full combination table into durable storage. Run once
// at system setup; entries are immutable afterwards and stored without TTL.
func Generate(store kvstore.KVStore) error {
	for i := uint32(0); i < game.CatalogSize; i++ {
		combo := game.FromIndex(i)
		key := fmt.Sprintf("%s/%s", constant.KVPrefixCatalog, combo.Key())
		if err := store.SetAny(key, combo); err != nil {
			return fmt.Errorf("write catalog entry %s: %w", combo.Key(), err)
		}
	}
	return nil
}
