package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/internal/selector"
	"github.com/winforge/fived-engine/pkg/events"
	"github.com/winforge/fived-engine/pkg/lock"
	"github.com/winforge/fived-engine/pkg/store/resultstore"
)

// Delivery produces the final outcome at period end. Fast path: read the
// pre-calculated record. Fallback: run the selector synchronously against
// the latest ledger snapshot. Either way the outcome is handed to
// settlement exactly once per period.
type Delivery struct {
	results   *resultstore.Store
	ledger    exposure.Ledger
	selector  *selector.Selector
	emitter   events.Emitter
	locker    lock.Locker
	resultTTL time.Duration
	logger    *slog.Logger
}

func New(
	results *resultstore.Store,
	ledger exposure.Ledger,
	sel *selector.Selector,
	emitter events.Emitter,
	locker lock.Locker,
	resultTTL time.Duration,
	logger *slog.Logger,
) *Delivery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Delivery{
		results:   results,
		ledger:    ledger,
		selector:  sel,
		emitter:   emitter,
		locker:    locker,
		resultTTL: resultTTL,
		logger:    logger,
	}
}

func settleLockKey(key period.Key) string {
	return "settle:" + key.String()
}

// GetResult returns the outcome for a period. Idempotent: repeated calls
// return the same combination, and settlement is emitted at most once.
func (d *Delivery) GetResult(ctx context.Context, key period.Key) (resultstore.Record, error) {
	// Already settled: return the delivered record as-is.
	if rec, found, err := d.results.GetDelivered(key.String()); err == nil && found {
		return rec, nil
	}

	rec, combo, err := d.resolve(ctx, key)
	if err != nil {
		return resultstore.Record{}, err
	}

	acquired, err := d.locker.TryAcquire(ctx, settleLockKey(key), d.resultTTL)
	if err != nil {
		return resultstore.Record{}, fmt.Errorf("acquire settle lock: %w", err)
	}
	if !acquired {
		// Another path won the settlement race; wait for its record so both
		// callers observe the same combination.
		return d.awaitDelivered(ctx, key, rec)
	}

	if err := d.emitter.EmitResult(buildResultEvent(key, rec, combo)); err != nil {
		// Settlement did not happen; release so a retry can settle.
		if relErr := d.locker.Release(ctx, settleLockKey(key)); relErr != nil {
			d.logger.Warn("Failed to release settle lock", "period", key.String(), "err", relErr)
		}
		return resultstore.Record{}, fmt.Errorf("emit settlement: %w", err)
	}

	if err := d.results.SaveDelivered(key.String(), rec, d.resultTTL); err != nil {
		d.logger.Error("Failed to persist delivered result", "period", key.String(), "err", err)
	} else if err := d.results.DeletePrecalc(key.String()); err != nil {
		// Harmless if it lingers; the TTL reclaims it anyway.
		d.logger.Warn("Failed to clear precalc record", "period", key.String(), "err", err)
	}
	if err := d.ledger.Expire(ctx, key); err != nil {
		d.logger.Warn("Failed to expire ledger entry", "period", key.String(), "err", err)
	}
	return rec, nil
}

// resolve obtains the outcome record: pre-calculated if present and well
// formed, otherwise computed on demand.
func (d *Delivery) resolve(ctx context.Context, key period.Key) (resultstore.Record, game.Combination, error) {
	rec, found, err := d.results.GetPrecalc(key.String())
	if err != nil {
		d.logger.Warn("Precalc read failed, computing on demand", "period", key.String(), "err", err)
		found = false
	}
	if found {
		combo, parseErr := game.ParseKey(rec.Combination)
		if parseErr == nil {
			return rec, combo, nil
		}
		d.logger.Error("Pre-calculated result malformed, computing on demand",
			"period", key.String(), "combination", rec.Combination, "err", parseErr)
	} else {
		d.logger.Warn("No pre-calculated result, computing on demand", "period", key.String())
	}

	snapshot, err := d.ledger.Snapshot(ctx, key)
	if err != nil {
		return resultstore.Record{}, game.Combination{}, fmt.Errorf("ledger snapshot: %w", err)
	}
	outcome := d.selector.Pick(ctx, snapshot)
	rec = resultstore.Record{
		PeriodKey:   key.String(),
		Combination: outcome.Combination.Key(),
		Liability:   outcome.Liability,
		Mode:        string(outcome.Mode),
		Snapshot:    snapshot,
		ComputedAt:  time.Now().UTC(),
	}
	return rec, outcome.Combination, nil
}

// awaitDelivered polls briefly for the record persisted by the settlement
// winner. If it never appears, the locally resolved record is returned
// without emitting, so the caller still gets a valid result.
func (d *Delivery) awaitDelivered(ctx context.Context, key period.Key, local resultstore.Record) (resultstore.Record, error) {
	for i := 0; i < 20; i++ {
		if rec, found, err := d.results.GetDelivered(key.String()); err == nil && found {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return local, nil
		case <-time.After(50 * time.Millisecond):
		}
	}
	d.logger.Warn("Settlement owner never persisted a delivered record", "period", key.String())
	return local, nil
}

func buildResultEvent(key period.Key, rec resultstore.Record, combo game.Combination) events.ResultEvent {
	return events.ResultEvent{
		GameType:  key.GameType,
		Duration:  key.Duration,
		Timeline:  key.Timeline,
		PeriodID:  key.PeriodID,
		Result:    combo.Key(),
		Digits:    combo.Digits,
		Sum:       combo.Sum,
		Parity:    combo.SumParity().String(),
		Size:      combo.SumSize().String(),
		Mode:      rec.Mode,
		Liability: rec.Liability,
		Timestamp: rec.ComputedAt.Unix(),
	}
}
