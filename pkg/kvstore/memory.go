package kvstore

import (
	"strings"
	"sync"
	"time"

	"github.com/winforge/fived-engine/pkg/common/enum"
	"github.com/winforge/fived-engine/pkg/infra"
)

// MemoryStore is an in-process KVStore for tests and single-node development
// runs. TTLs are enforced lazily on read.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]memoryEntry
	prefix string
	codec  infra.Codec
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func NewMemoryStore(prefix string, codec infra.Codec) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]memoryEntry),
		prefix: prefix,
		codec:  codec,
	}
}

func (m *MemoryStore) fullKey(k string) (string, error) {
	if k == "" {
		return "", ErrKeyEmpty
	}
	if m.prefix != "" {
		return m.prefix + "/" + k, nil
	}
	return k, nil
}

func (m *MemoryStore) GetName() string {
	return string(enum.KVStoreTypeMemory)
}

func (m *MemoryStore) get(fullKey string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.data[fullKey]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.data, fullKey)
		m.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (m *MemoryStore) Get(key string) (string, error) {
	k, err := m.fullKey(key)
	if err != nil {
		return "", err
	}
	v, ok := m.get(k)
	if !ok {
		return "", ErrKeyNotFound
	}
	return string(v), nil
}

func (m *MemoryStore) Set(key string, value string) error {
	k, err := m.fullKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[k] = memoryEntry{value: []byte(value)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SetAny(key string, value any) error {
	return m.SetAnyWithTTL(key, value, 0)
}

func (m *MemoryStore) SetAnyWithTTL(key string, value any, ttl time.Duration) error {
	if err := checkKeyAndValue(key, value); err != nil {
		return err
	}
	k, err := m.fullKey(key)
	if err != nil {
		return err
	}
	data, err := m.codec.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{value: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.data[k] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetAny(key string, value any) (bool, error) {
	if err := checkKeyAndValue(key, value); err != nil {
		return false, err
	}
	k, err := m.fullKey(key)
	if err != nil {
		return false, err
	}
	v, ok := m.get(k)
	if !ok {
		return false, nil
	}
	return true, m.codec.Unmarshal(v, value)
}

func (m *MemoryStore) List(prefix string) ([]*KVPair, error) {
	if prefix == "" {
		return nil, ErrKeyEmpty
	}
	searchPrefix := prefix
	if m.prefix != "" {
		searchPrefix = m.prefix + "/" + prefix
	}

	now := time.Now()
	result := make([]*KVPair, 0)
	m.mu.RLock()
	for k, entry := range m.data {
		if !strings.HasPrefix(k, searchPrefix) {
			continue
		}
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			continue
		}
		result = append(result, &KVPair{Key: k, Value: entry.value})
	}
	m.mu.RUnlock()
	return result, nil
}

func (m *MemoryStore) Delete(key string) error {
	k, err := m.fullKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
