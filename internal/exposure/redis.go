package exposure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/pkg/infra"
)

// RedisLedger keeps one hash per period, one field per bet-pattern key.
// HINCRBY gives the per-field atomicity the concurrency model requires:
// concurrent bettors never lose updates, and the selector's HGETALL sees
// every previously acknowledged increment.
type RedisLedger struct {
	client infra.RedisClient
	ttl    time.Duration
}

func NewRedisLedger(client infra.RedisClient, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) RecordBet(ctx context.Context, key period.Key, patterns []game.Pattern, liability int64) error {
	if len(patterns) == 0 {
		return fmt.Errorf("%w: bet covers no patterns", ErrLedgerWrite)
	}

	storageKey := ledgerStorageKey(key)
	pipe := l.client.GetClient().TxPipeline()
	for _, p := range patterns {
		pipe.HIncrBy(ctx, storageKey, p.String(), liability)
	}
	if l.ttl > 0 {
		pipe.PExpire(ctx, storageKey, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}
	return nil
}

func (l *RedisLedger) Snapshot(ctx context.Context, key period.Key) (map[string]int64, error) {
	fields, err := l.client.GetClient().HGetAll(ctx, ledgerStorageKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger snapshot: %w", err)
	}

	snapshot := make(map[string]int64, len(fields))
	for pattern, raw := range fields {
		liability, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ledger snapshot: field %s: %w", pattern, err)
		}
		snapshot[pattern] = liability
	}
	return snapshot, nil
}

func (l *RedisLedger) Expire(ctx context.Context, key period.Key) error {
	return l.client.GetClient().Del(ctx, ledgerStorageKey(key)).Err()
}
