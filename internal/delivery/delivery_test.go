package delivery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winforge/fived-engine/internal/catalog"
	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/internal/selector"
	"github.com/winforge/fived-engine/pkg/events"
	"github.com/winforge/fived-engine/pkg/infra"
	"github.com/winforge/fived-engine/pkg/kvstore"
	"github.com/winforge/fived-engine/pkg/lock"
	"github.com/winforge/fived-engine/pkg/store/resultstore"
)

// recordingEmitter captures settlement events instead of publishing them.
type recordingEmitter struct {
	mu     sync.Mutex
	events []events.ResultEvent
}

func (e *recordingEmitter) EmitResult(ev events.ResultEvent) error {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
	return nil
}

func (e *recordingEmitter) EmitError(string, error) error { return nil }

func (e *recordingEmitter) Close() {}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

func (e *recordingEmitter) last() events.ResultEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events[len(e.events)-1]
}

type fixture struct {
	delivery *Delivery
	results  *resultstore.Store
	ledger   *exposure.MemoryLedger
	emitter  *recordingEmitter
}

func newFixture() fixture {
	results := resultstore.New(kvstore.NewMemoryStore("", infra.JSON))
	ledger := exposure.NewMemoryLedger()
	emitter := &recordingEmitter{}
	sel := selector.New(catalog.Enumerator{}, 4, nil)
	d := New(results, ledger, sel, emitter, lock.NewMemoryLocker(), time.Minute, nil)
	return fixture{delivery: d, results: results, ledger: ledger, emitter: emitter}
}

func testKey() period.Key {
	return period.Key{
		GameType: "fiveD",
		Duration: 60,
		Timeline: "default",
		PeriodID: "2026083100631",
	}
}

func TestGetResult_UsesPrecalculatedRecord(t *testing.T) {
	f := newFixture()
	key := testKey()

	precalc := resultstore.Record{
		PeriodKey:   key.String(),
		Combination: "07345",
		Liability:   0,
		Mode:        string(selector.ModeZeroExposure),
		Snapshot:    map[string]int64{"SUM:PARITY:even": 200},
		ComputedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, f.results.SavePrecalc(key.String(), precalc, time.Minute))

	rec, err := f.delivery.GetResult(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, precalc, rec)

	require.Equal(t, 1, f.emitter.count())
	ev := f.emitter.last()
	assert.Equal(t, "07345", ev.Result)
	assert.Equal(t, key.PeriodID, ev.PeriodID)
	assert.Equal(t, uint8(19), ev.Sum)
	assert.Equal(t, "odd", ev.Parity)
	assert.Equal(t, "small", ev.Size)
}

func TestGetResult_ClearsPrecalcAfterSettle(t *testing.T) {
	f := newFixture()
	key := testKey()

	precalc := resultstore.Record{
		PeriodKey:   key.String(),
		Combination: "07345",
		Mode:        string(selector.ModeZeroExposure),
		ComputedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.results.SavePrecalc(key.String(), precalc, time.Minute))

	_, err := f.delivery.GetResult(context.Background(), key)
	require.NoError(t, err)

	// The delivered record supersedes the precalc slot.
	_, found, err := f.results.GetPrecalc(key.String())
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = f.results.GetDelivered(key.String())
	require.NoError(t, err)
	assert.True(t, found)
}

func TestGetResult_Idempotent(t *testing.T) {
	f := newFixture()
	key := testKey()

	first, err := f.delivery.GetResult(context.Background(), key)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := f.delivery.GetResult(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, first.Combination, again.Combination)
	}

	// Settlement fired exactly once despite four calls.
	assert.Equal(t, 1, f.emitter.count())
}

func TestGetResult_FallbackComputesOnDemand(t *testing.T) {
	f := newFixture()
	key := testKey()

	patterns := []game.Pattern{
		game.SumParityIs(game.ParityEven),
		game.SumSizeIs(game.SizeSmall),
	}
	require.NoError(t, f.ledger.RecordBet(context.Background(), key, patterns, 300))

	// No precalc record exists; delivery must run the selector itself.
	rec, err := f.delivery.GetResult(context.Background(), key)
	require.NoError(t, err)

	combo, parseErr := game.ParseKey(rec.Combination)
	require.NoError(t, parseErr)
	assert.Equal(t, int64(0), rec.Liability)
	assert.Equal(t, game.ParityOdd, combo.SumParity())
	assert.Equal(t, game.SizeBig, combo.SumSize())
	assert.Equal(t, 1, f.emitter.count())
}

func TestGetResult_ExpiresLedgerAfterSettlement(t *testing.T) {
	f := newFixture()
	key := testKey()

	patterns := []game.Pattern{game.ExactSum(23)}
	require.NoError(t, f.ledger.RecordBet(context.Background(), key, patterns, 100))

	_, err := f.delivery.GetResult(context.Background(), key)
	require.NoError(t, err)

	snapshot, err := f.ledger.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Empty(t, snapshot, "settled period must not keep exposure rows")
}

func TestGetResult_MalformedPrecalcRecomputed(t *testing.T) {
	f := newFixture()
	key := testKey()

	bad := resultstore.Record{
		PeriodKey:   key.String(),
		Combination: "not-a-combo",
		ComputedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.results.SavePrecalc(key.String(), bad, time.Minute))

	rec, err := f.delivery.GetResult(context.Background(), key)
	require.NoError(t, err)

	_, parseErr := game.ParseKey(rec.Combination)
	assert.NoError(t, parseErr, "delivered combination must be well formed")
	assert.Equal(t, 1, f.emitter.count())
}

func TestGetResult_ConcurrentCallersAgree(t *testing.T) {
	f := newFixture()
	key := testKey()

	const callers = 8
	outcomes := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			rec, err := f.delivery.GetResult(context.Background(), key)
			if assert.NoError(t, err) {
				outcomes[slot] = rec.Combination
			}
		}(i)
	}
	wg.Wait()

	for _, combo := range outcomes[1:] {
		assert.Equal(t, outcomes[0], combo)
	}
	assert.Equal(t, 1, f.emitter.count())
}
