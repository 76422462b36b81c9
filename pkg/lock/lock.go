package lock

import (
	"context"
	"sync"
	"time"

	"github.com/winforge/fived-engine/pkg/infra"
)

// Locker provides per-key mutual exclusion across engine instances. It is
// the only mutual-exclusion point in the engine: pre-calculation uses it to
// prevent duplicate computation, delivery uses it to prevent double
// settlement.
type Locker interface {
	// TryAcquire attempts to take the lock; false means another owner holds it.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisLocker struct {
	client infra.RedisClient
	prefix string
}

func NewRedisLocker(client infra.RedisClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) fullKey(key string) string {
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.GetClient().SetNX(ctx, l.fullKey(key), 1, ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.GetClient().Del(ctx, l.fullKey(key)).Err()
}

// MemoryLocker is a process-local Locker for tests and single-node runs.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time)}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expires, ok := l.held[key]; ok && (expires.IsZero() || time.Now().Before(expires)) {
		return false, nil
	}
	if ttl > 0 {
		l.held[key] = time.Now().Add(ttl)
	} else {
		l.held[key] = time.Time{}
	}
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
	return nil
}
