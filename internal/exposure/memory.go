package exposure

import (
	"context"
	"sync"

	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/internal/period"
)

// MemoryLedger is a process-local Ledger for tests and single-node runs.
type MemoryLedger struct {
	mu      sync.Mutex
	periods map[string]map[string]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{periods: make(map[string]map[string]int64)}
}

func (l *MemoryLedger) RecordBet(_ context.Context, key period.Key, patterns []game.Pattern, liability int64) error {
	if len(patterns) == 0 {
		return ErrLedgerWrite
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	storageKey := ledgerStorageKey(key)
	entry, ok := l.periods[storageKey]
	if !ok {
		entry = make(map[string]int64)
		l.periods[storageKey] = entry
	}
	for _, p := range patterns {
		entry[p.String()] += liability
	}
	return nil
}

func (l *MemoryLedger) Snapshot(_ context.Context, key period.Key) (map[string]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string]int64)
	for pattern, liability := range l.periods[ledgerStorageKey(key)] {
		snapshot[pattern] = liability
	}
	return snapshot, nil
}

func (l *MemoryLedger) Expire(_ context.Context, key period.Key) error {
	l.mu.Lock()
	delete(l.periods, ledgerStorageKey(key))
	l.mu.Unlock()
	return nil
}
