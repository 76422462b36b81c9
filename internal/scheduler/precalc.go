package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/internal/selector"
	"github.com/winforge/fived-engine/pkg/lock"
	"github.com/winforge/fived-engine/pkg/store/resultstore"
)

// ErrComputationOwned means another scheduler instance holds the
// pre-calculation lock for this period. Expected under multi-instance
// deployment; the losing trigger simply exits.
var ErrComputationOwned = errors.New("pre-calculation already owned for period")

// PreCalculator runs the selector ahead of period close and persists the
// outcome so delivery at period end is a single read.
//
// Per period it moves through: triggered (freeze instant) -> computing
// (lock held, scan running) -> completed (record persisted). Delivery and
// TTL expiry take over from there. Any failure while computing releases
// the lock and leaves no record; delivery detects the absence and falls
// back to on-demand computation.
type PreCalculator struct {
	ledger    exposure.Ledger
	selector  *selector.Selector
	results   *resultstore.Store
	locker    lock.Locker
	timeout   time.Duration
	resultTTL time.Duration
	logger    *slog.Logger
}

func NewPreCalculator(
	ledger exposure.Ledger,
	sel *selector.Selector,
	results *resultstore.Store,
	locker lock.Locker,
	timeout time.Duration,
	resultTTL time.Duration,
	logger *slog.Logger,
) *PreCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreCalculator{
		ledger:    ledger,
		selector:  sel,
		results:   results,
		locker:    locker,
		timeout:   timeout,
		resultTTL: resultTTL,
		logger:    logger,
	}
}

func precalcLockKey(key period.Key) string {
	return "precalc:" + key.String()
}

// Precalculate computes and persists the outcome for one period window.
// Returns ErrComputationOwned when another instance won the lock.
func (p *PreCalculator) Precalculate(ctx context.Context, win period.Window) (resultstore.Record, error) {
	// The lock outlives the period end by the result TTL so a crashed owner
	// cannot wedge the period forever, while a live owner is never raced.
	lockTTL := time.Until(win.EndAt) + p.resultTTL
	if lockTTL < 10*time.Second {
		lockTTL = 10 * time.Second
	}

	acquired, err := p.locker.TryAcquire(ctx, precalcLockKey(win.Key), lockTTL)
	if err != nil {
		return resultstore.Record{}, fmt.Errorf("acquire precalc lock: %w", err)
	}
	if !acquired {
		return resultstore.Record{}, ErrComputationOwned
	}

	snapshot, err := p.ledger.Snapshot(ctx, win.Key)
	if err != nil {
		p.release(ctx, win.Key)
		return resultstore.Record{}, fmt.Errorf("ledger snapshot: %w", err)
	}

	// Hard deadline: never compute past period end, and keep headroom below
	// it so the record is persisted before delivery reads.
	deadline := time.Now().Add(p.timeout)
	if win.EndAt.Before(deadline) {
		deadline = win.EndAt
	}
	scanCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	start := time.Now()
	outcome := p.selector.Pick(scanCtx, snapshot)

	rec := resultstore.Record{
		PeriodKey:   win.Key.String(),
		Combination: outcome.Combination.Key(),
		Liability:   outcome.Liability,
		Mode:        string(outcome.Mode),
		Snapshot:    snapshot,
		ComputedAt:  time.Now().UTC(),
	}
	if err := p.results.SavePrecalc(win.Key.String(), rec, p.resultTTL); err != nil {
		p.release(ctx, win.Key)
		return resultstore.Record{}, fmt.Errorf("persist precalc result: %w", err)
	}

	p.logger.Info("Pre-calculated result",
		"period", win.Key.String(),
		"result", rec.Combination,
		"mode", rec.Mode,
		"liability", rec.Liability,
		"patterns", len(snapshot),
		"elapsed", time.Since(start),
	)
	return rec, nil
}

func (p *PreCalculator) release(ctx context.Context, key period.Key) {
	if err := p.locker.Release(ctx, precalcLockKey(key)); err != nil {
		p.logger.Warn("Failed to release precalc lock", "period", key.String(), "err", err)
	}
}
