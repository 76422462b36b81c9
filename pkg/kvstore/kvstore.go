package kvstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/winforge/fived-engine/pkg/common/config"
	"github.com/winforge/fived-engine/pkg/common/enum"
	"github.com/winforge/fived-engine/pkg/infra"
)

var (
	ErrKeyEmpty    = errors.New("key is empty")
	ErrKeyNotFound = errors.New("key not found")
)

type KVPair struct {
	Key   string
	Value []byte
}

// KVStore is an interface for key-value stores backing the combination
// catalog and the pre-calculated result records.
type KVStore interface {
	GetName() string
	Set(k string, v string) error
	Get(k string) (v string, err error)
	// SetAny/GetAny operate on structs or maps through the store codec.
	SetAny(k string, v any) error
	GetAny(k string, v any) (found bool, err error)
	// SetAnyWithTTL stores a value that the store reclaims after ttl.
	// A ttl <= 0 behaves like SetAny.
	SetAnyWithTTL(k string, v any, ttl time.Duration) error

	List(prefix string) ([]*KVPair, error)
	Delete(k string) error
	Close() error
}

// NewFromConfig constructs a KVStore based on kvstore configuration.
func NewFromConfig(cfg config.KVStoreCfg) (KVStore, error) {
	switch cfg.Type {
	case enum.KVStoreTypeBadger:
		return NewBadgerStore(cfg.Badger.Directory, cfg.Badger.Prefix, infra.JSON)
	case enum.KVStoreTypeMemory:
		return NewMemoryStore(cfg.Badger.Prefix, infra.JSON), nil
	default:
		return nil, fmt.Errorf("unsupported kvstore type: %s", cfg.Type)
	}
}

func checkKeyAndValue(key string, value any) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if value == nil {
		return errors.New("value is nil")
	}
	return nil
}
