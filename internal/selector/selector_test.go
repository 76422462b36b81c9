package selector

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winforge/fived-engine/internal/catalog"
	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/game"
)

// bruteForceMin computes the true minimum liability over the full catalog.
func bruteForceMin(snapshot map[string]int64) int64 {
	compiled := exposure.Compile(snapshot)
	minLiability := int64(math.MaxInt64)
	for i := uint32(0); i < game.CatalogSize; i++ {
		if v := compiled.Evaluate(game.FromIndex(i)); v < minLiability {
			minLiability = v
		}
	}
	return minLiability
}

func TestPick_Minimality(t *testing.T) {
	snapshots := []map[string]int64{
		{"SUM:PARITY:even": 200, "SUM:SIZE:small": 202},
		{"SUM:EXACT:23": 5000, "A:EXACT:7": 300},
		// Every sum parity and size carries liability: no zero-exposure set.
		{
			"SUM:PARITY:even": 100, "SUM:PARITY:odd": 150,
			"SUM:SIZE:small": 120, "SUM:SIZE:big": 130,
		},
	}

	sel := New(catalog.Enumerator{}, 4, nil)
	for _, snapshot := range snapshots {
		outcome := sel.Pick(context.Background(), snapshot)
		want := bruteForceMin(snapshot)
		assert.Equal(t, want, outcome.Liability, "snapshot %v", snapshot)
		assert.Equal(t, want, exposure.Evaluate(outcome.Combination, snapshot))
	}
}

func TestPick_ZeroExposure(t *testing.T) {
	// Liability sits on even parity and small size; a big+odd combination
	// owes nothing and must be chosen.
	snapshot := map[string]int64{
		"SUM:PARITY:even": 200,
		"SUM:SIZE:small":  202,
	}

	sel := New(catalog.Enumerator{}, 8, nil)
	for i := 0; i < 10; i++ {
		outcome := sel.Pick(context.Background(), snapshot)
		require.Equal(t, ModeZeroExposure, outcome.Mode)
		assert.Equal(t, int64(0), outcome.Liability)
		assert.Equal(t, game.ParityOdd, outcome.Combination.SumParity())
		assert.Equal(t, game.SizeBig, outcome.Combination.SumSize())
	}
}

func TestPick_ProtectionScenario(t *testing.T) {
	// Heavy liability on even and small; token liability on odd and big.
	// The selection must be big AND odd: total liability 0, not 2, not 202.
	snapshot := map[string]int64{
		"SUM:PARITY:even": 200,
		"SUM:PARITY:odd":  2,
		"SUM:SIZE:small":  202,
		"SUM:SIZE:big":    2,
	}

	sel := New(catalog.Enumerator{}, 8, nil)
	outcome := sel.Pick(context.Background(), snapshot)

	assert.GreaterOrEqual(t, outcome.Combination.Sum, uint8(game.SumBigThreshold))
	assert.Equal(t, game.ParityOdd, outcome.Combination.SumParity())
	assert.Equal(t, int64(4), outcome.Liability) // odd(2) + big(2) is the floor here
	assert.Equal(t, bruteForceMin(snapshot), outcome.Liability)
}

func TestPick_EmptyLedgerIsRandom(t *testing.T) {
	sel := New(catalog.Enumerator{}, 4, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		outcome := sel.Pick(context.Background(), nil)
		require.Equal(t, ModeRandom, outcome.Mode)
		seen[outcome.Combination.Key()] = true
	}
	// 50 uniform draws from 100,000 should essentially never repeat much;
	// a handful of distinct values proves the pick is not deterministic.
	assert.Greater(t, len(seen), 10)
}

func TestPick_TieBreakSpreads(t *testing.T) {
	// The zero-exposure set here is large (all odd+big sums); repeated picks
	// should not concentrate on one combination.
	snapshot := map[string]int64{
		"SUM:PARITY:even": 500,
		"SUM:SIZE:small":  500,
	}

	sel := New(catalog.Enumerator{}, 4, nil)
	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		outcome := sel.Pick(context.Background(), snapshot)
		seen[outcome.Combination.Key()] = true
	}
	assert.Greater(t, len(seen), 5)
}

func TestPick_DeadlineFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // deadline already passed before the scan starts

	sel := New(catalog.Enumerator{}, 4, nil)
	outcome := sel.Pick(ctx, map[string]int64{"SUM:PARITY:even": 100})

	// Never blocks and never fails: a combination is always produced.
	assert.Contains(t, []Mode{ModeFallbackRandom, ModeFallbackPartial}, outcome.Mode)
	assert.NotEmpty(t, outcome.Combination.Key())
}

func TestPick_MalformedPatternsOnly(t *testing.T) {
	// A snapshot of only malformed keys behaves like an empty ledger.
	sel := New(catalog.Enumerator{}, 4, nil)
	outcome := sel.Pick(context.Background(), map[string]int64{"not-a-pattern": 100})
	assert.Equal(t, ModeRandom, outcome.Mode)
}

func TestPick_SingleChunk(t *testing.T) {
	sel := New(catalog.Enumerator{}, 1, nil)
	snapshot := map[string]int64{"SUM:EXACT:0": 100}
	outcome := sel.Pick(context.Background(), snapshot)
	assert.Equal(t, ModeZeroExposure, outcome.Mode)
	assert.NotEqual(t, uint8(0), outcome.Combination.Sum)
	assert.Equal(t, uint32(game.CatalogSize), outcome.Scanned)
}
