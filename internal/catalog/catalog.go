package catalog

import (
	"errors"

	"github.com/winforge/fived-engine/internal/game"
)

// ErrCacheLoad reports that the durable catalog table could not be read.
// Callers degrade to direct enumeration instead of crashing.
var ErrCacheLoad = errors.New("combination catalog load failed")

// Source is what the selector scans: random access over the full
// combination space. It is read-only and safe for concurrent use.
type Source interface {
	At(index uint32) game.Combination
	Len() uint32
}

// Enumerator is the non-cached Source: combinations are derived from their
// index on every access. Used when the durable catalog is unreachable.
type Enumerator struct{}

func (Enumerator) At(index uint32) game.Combination {
	return game.FromIndex(index)
}

func (Enumerator) Len() uint32 {
	return game.CatalogSize
}
