package exposure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/pkg/common/config"
	"github.com/winforge/fived-engine/pkg/common/enum"
	"github.com/winforge/fived-engine/pkg/infra"
)

// ErrLedgerWrite reports that a bet's liability increment failed to persist.
// It propagates to the bet-ingestion caller: a bet whose exposure tracking
// failed must not be considered accepted.
var ErrLedgerWrite = errors.New("exposure ledger write failed")

// Ledger accumulates per-period, per-bet-pattern liability as bets arrive
// and exposes read-only snapshots to the selector. Increments must be
// linearizable per period: every accepted bet is reflected before the next
// snapshot is taken.
type Ledger interface {
	// RecordBet adds liability (minor units) to each pattern the bet covers.
	RecordBet(ctx context.Context, key period.Key, patterns []game.Pattern, liability int64) error
	// Snapshot returns the current pattern->liability mapping. An empty map
	// means no bets: every combination has zero exposure.
	Snapshot(ctx context.Context, key period.Key) (map[string]int64, error)
	// Expire releases the ledger entry after settlement. No-op if already gone.
	Expire(ctx context.Context, key period.Key) error
}

func ledgerStorageKey(key period.Key) string {
	return fmt.Sprintf("exposure:%s", key.String())
}

// NewFromConfig constructs a Ledger based on ledger configuration. The redis
// backend requires a connected client; ttl bounds retention per period.
func NewFromConfig(cfg config.LedgerCfg, client infra.RedisClient, ttl time.Duration) (Ledger, error) {
	switch cfg.Type {
	case enum.LedgerTypeRedis:
		if client == nil {
			return nil, errors.New("redis ledger requires a redis client")
		}
		return NewRedisLedger(client, ttl), nil
	case enum.LedgerTypeMemory:
		return NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", cfg.Type)
	}
}
