package resultstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/winforge/fived-engine/pkg/common/constant"
	"github.com/winforge/fived-engine/pkg/kvstore"
)

// Record is one chosen outcome for a period: the combination, the exposure
// snapshot it was computed against, and the protection mode that produced it.
type Record struct {
	PeriodKey   string           `json:"period_key"`
	Combination string           `json:"combination"`
	Liability   int64            `json:"liability"`
	Mode        string           `json:"mode"`
	Snapshot    map[string]int64 `json:"snapshot,omitempty"`
	ComputedAt  time.Time        `json:"computed_at"`
}

// Store persists pre-calculated and delivered results over a KVStore.
// Entries carry a TTL so storage stays bounded when delivery never happens
// (cancelled periods).
type Store struct {
	store kvstore.KVStore
}

func New(store kvstore.KVStore) *Store {
	return &Store{store: store}
}

func (s *Store) precalcKey(periodKey string) string {
	return fmt.Sprintf("%s/%s", constant.KVPrefixPrecalc, periodKey)
}

func (s *Store) deliveredKey(periodKey string) string {
	return fmt.Sprintf("%s/%s", constant.KVPrefixDelivered, periodKey)
}

func (s *Store) SavePrecalc(periodKey string, rec Record, ttl time.Duration) error {
	if periodKey == "" {
		return errors.New("period key is required")
	}
	return s.store.SetAnyWithTTL(s.precalcKey(periodKey), rec, ttl)
}

func (s *Store) GetPrecalc(periodKey string) (Record, bool, error) {
	var rec Record
	found, err := s.store.GetAny(s.precalcKey(periodKey), &rec)
	return rec, found, err
}

func (s *Store) DeletePrecalc(periodKey string) error {
	return s.store.Delete(s.precalcKey(periodKey))
}

func (s *Store) SaveDelivered(periodKey string, rec Record, ttl time.Duration) error {
	if periodKey == "" {
		return errors.New("period key is required")
	}
	return s.store.SetAnyWithTTL(s.deliveredKey(periodKey), rec, ttl)
}

func (s *Store) GetDelivered(periodKey string) (Record, bool, error) {
	var rec Record
	found, err := s.store.GetAny(s.deliveredKey(periodKey), &rec)
	return rec, found, err
}
