package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winforge/fived-engine/internal/catalog"
	"github.com/winforge/fived-engine/internal/delivery"
	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/internal/selector"
	"github.com/winforge/fived-engine/pkg/events"
	"github.com/winforge/fived-engine/pkg/infra"
	"github.com/winforge/fived-engine/pkg/kvstore"
	"github.com/winforge/fived-engine/pkg/lock"
	"github.com/winforge/fived-engine/pkg/store/resultstore"
)

// countingLedger counts Snapshot calls: one per selector run, so it tells
// precalc runs and on-demand fallbacks apart from precalc-record reads.
type countingLedger struct {
	*exposure.MemoryLedger
	snapshots atomic.Int32
}

func (l *countingLedger) Snapshot(ctx context.Context, key period.Key) (map[string]int64, error) {
	l.snapshots.Add(1)
	return l.MemoryLedger.Snapshot(ctx, key)
}

type countingEmitter struct {
	mu      sync.Mutex
	results []events.ResultEvent
	errors  []string
}

func (e *countingEmitter) EmitResult(ev events.ResultEvent) error {
	e.mu.Lock()
	e.results = append(e.results, ev)
	e.mu.Unlock()
	return nil
}

func (e *countingEmitter) EmitError(periodKey string, _ error) error {
	e.mu.Lock()
	e.errors = append(e.errors, periodKey)
	e.mu.Unlock()
	return nil
}

func (e *countingEmitter) Close() {}

func (e *countingEmitter) resultCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.results)
}

func (e *countingEmitter) errorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errors)
}

type workerFixture struct {
	worker  *Worker
	ledger  *countingLedger
	results *resultstore.Store
	emitter *countingEmitter
}

func newWorkerFixture(ledger exposure.Ledger) workerFixture {
	counting, _ := ledger.(*countingLedger)
	results := resultstore.New(kvstore.NewMemoryStore("", infra.JSON))
	emitter := &countingEmitter{}
	locker := lock.NewMemoryLocker()
	sel := selector.New(catalog.Enumerator{}, 4, nil)

	precalc := NewPreCalculator(ledger, sel, results, locker, 3*time.Second, time.Minute, nil)
	deliv := delivery.New(results, ledger, sel, emitter, locker, time.Minute, nil)
	w := NewWorker(context.Background(), precalc, deliv, emitter, "fiveD", "default", 60, 5*time.Second)

	return workerFixture{worker: w, ledger: counting, results: results, emitter: emitter}
}

// windowBase returns an upcoming minute boundary so period end stays in the
// future of the real clock while ticks are driven with crafted times.
func windowBase() time.Time {
	return time.Now().UTC().Truncate(time.Minute).Add(time.Minute)
}

func TestWorkerTick_FreezeTriggersPrecalcOnce(t *testing.T) {
	f := newWorkerFixture(&countingLedger{MemoryLedger: exposure.NewMemoryLedger()})
	base := windowBase()
	key := period.Current("fiveD", 60, "default", 5*time.Second, base).Key

	// Before the freeze instant nothing fires.
	f.worker.tick(base.Add(10 * time.Second))
	f.worker.tick(base.Add(54 * time.Second))
	assert.Equal(t, int32(0), f.ledger.snapshots.Load())

	// At and after the freeze instant: one trigger for the whole period.
	f.worker.tick(base.Add(55 * time.Second))
	f.worker.tick(base.Add(56 * time.Second))
	f.worker.tick(base.Add(59 * time.Second))

	require.Eventually(t, func() bool {
		_, found, err := f.results.GetPrecalc(key.String())
		return err == nil && found
	}, 2*time.Second, 10*time.Millisecond, "precalc record should appear after the freeze tick")
	assert.Equal(t, int32(1), f.ledger.snapshots.Load(), "precalc must run exactly once per period")
}

func TestWorkerTick_RolloverDeliversOncePerPeriod(t *testing.T) {
	f := newWorkerFixture(&countingLedger{MemoryLedger: exposure.NewMemoryLedger()})
	base := windowBase()
	first := period.Current("fiveD", 60, "default", 5*time.Second, base).Key
	second := period.Current("fiveD", 60, "default", 5*time.Second, base.Add(time.Minute)).Key

	// Run the first period through its freeze so delivery has a precalc record.
	f.worker.tick(base.Add(30 * time.Second))
	f.worker.tick(base.Add(55 * time.Second))
	require.Eventually(t, func() bool {
		_, found, err := f.results.GetPrecalc(first.String())
		return err == nil && found
	}, 2*time.Second, 10*time.Millisecond)

	// Rollover into the second period delivers the first, exactly once.
	f.worker.tick(base.Add(61 * time.Second))
	f.worker.tick(base.Add(62 * time.Second))
	require.Eventually(t, func() bool {
		_, found, err := f.results.GetDelivered(first.String())
		return err == nil && found
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, f.emitter.resultCount())
	assert.Equal(t, int32(1), f.ledger.snapshots.Load(),
		"delivery of a precalculated period must not rescan")

	// The second period was never frozen by a tick; its rollover delivery
	// computes on demand and still settles exactly once.
	f.worker.tick(base.Add(121 * time.Second))
	require.Eventually(t, func() bool {
		_, found, err := f.results.GetDelivered(second.String())
		return err == nil && found
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, f.emitter.resultCount())
	assert.Equal(t, int32(2), f.ledger.snapshots.Load())
}

func TestWorkerTick_PrecalcFailureEmitsErrorEvent(t *testing.T) {
	f := newWorkerFixture(failingLedger{})
	base := windowBase()

	f.worker.tick(base.Add(55 * time.Second))

	require.Eventually(t, func() bool {
		return f.emitter.errorCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "a failed precalc should surface on the error subject")
	assert.Equal(t, 0, f.emitter.resultCount())
}
