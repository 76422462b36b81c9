package selector

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/winforge/fived-engine/internal/catalog"
	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/game"
)

// Mode tags how an outcome was chosen, for operational alerting and the
// settlement audit trail.
type Mode string

const (
	// ModeZeroExposure: a combination with zero total liability exists and was chosen.
	ModeZeroExposure Mode = "zero-exposure"
	// ModeMinimumExposure: no zero-liability combination; the scan minimum was chosen.
	ModeMinimumExposure Mode = "minimum-exposure"
	// ModeRandom: empty ledger, uniform random pick, no protection needed.
	ModeRandom Mode = "random"
	// ModeFallbackPartial: the scan hit its deadline; best partial result used.
	ModeFallbackPartial Mode = "fallback-partial"
	// ModeFallbackRandom: the scan hit its deadline before any chunk finished
	// a candidate; random pick so settlement is never blocked.
	ModeFallbackRandom Mode = "fallback-random"
)

// Outcome is the selector's decision for one period.
type Outcome struct {
	Combination game.Combination
	Liability   int64
	Mode        Mode
	Scanned     uint32
	TieCount    int
}

// Selector scans the combination space for the outcome minimizing platform
// payout. The scan fans out over disjoint index ranges and merges typed
// chunk results; ties at the minimum are broken uniformly at random so the
// selection rule cannot be inferred by bettors.
type Selector struct {
	source catalog.Source
	chunks int
	logger *slog.Logger
}

func New(source catalog.Source, chunks int, logger *slog.Logger) *Selector {
	if chunks < 1 {
		chunks = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{source: source, chunks: chunks, logger: logger}
}

// chunkResult is one scan shard's contribution: its local minimum and every
// index achieving it.
type chunkResult struct {
	min     int64
	ties    []uint32
	scanned uint32
	partial bool
}

// ctxCheckEvery bounds how stale a cancelled scan can run.
const ctxCheckEvery = 2048

// Pick chooses the outcome for the given exposure snapshot. Deadline
// overruns never surface as errors: the selector degrades to the best
// partial result or a random combination and reports the degradation via
// logs and the outcome mode.
func (s *Selector) Pick(ctx context.Context, snapshot map[string]int64) Outcome {
	compiled := exposure.Compile(snapshot)
	if n := len(compiled.Malformed); n > 0 {
		s.logger.Warn("Skipping malformed bet-pattern keys",
			"count", n,
			"keys", compiled.Malformed,
		)
	}

	total := s.source.Len()
	if compiled.Empty() {
		index := rand.Uint32N(total)
		return Outcome{
			Combination: s.source.At(index),
			Liability:   0,
			Mode:        ModeRandom,
			TieCount:    int(total),
		}
	}

	merged := s.scan(ctx, compiled, total)

	if len(merged.ties) == 0 {
		// Deadline hit before any candidate was evaluated.
		s.logger.Error("Selection timed out with no candidates, falling back to random",
			"scanned", merged.scanned,
		)
		index := rand.Uint32N(total)
		return Outcome{
			Combination: s.source.At(index),
			Liability:   compiled.Evaluate(s.source.At(index)),
			Mode:        ModeFallbackRandom,
			Scanned:     merged.scanned,
		}
	}

	pick := merged.ties[rand.IntN(len(merged.ties))]
	outcome := Outcome{
		Combination: s.source.At(pick),
		Liability:   merged.min,
		Scanned:     merged.scanned,
		TieCount:    len(merged.ties),
	}

	switch {
	case merged.partial:
		outcome.Mode = ModeFallbackPartial
		s.logger.Warn("Selection deadline hit, using best partial result",
			"scanned", merged.scanned,
			"total", total,
			"liability", merged.min,
		)
	case merged.min == 0:
		outcome.Mode = ModeZeroExposure
	default:
		outcome.Mode = ModeMinimumExposure
	}
	return outcome
}

// scan fans the catalog out over disjoint index ranges and merges the
// per-chunk results: global minimum, union of tie sets at that minimum.
func (s *Selector) scan(ctx context.Context, compiled exposure.CompiledSnapshot, total uint32) chunkResult {
	chunks := s.chunks
	if uint32(chunks) > total {
		chunks = int(total)
	}

	results := make(chan chunkResult, chunks)
	chunkSize := (total + uint32(chunks) - 1) / uint32(chunks)

	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		lo := uint32(i) * chunkSize
		hi := min(lo+chunkSize, total)
		wg.Add(1)
		go func(lo, hi uint32) {
			defer wg.Done()
			results <- s.scanChunk(ctx, compiled, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
	close(results)

	merged := chunkResult{min: math.MaxInt64}
	for res := range results {
		merged.scanned += res.scanned
		merged.partial = merged.partial || res.partial
		if len(res.ties) == 0 {
			continue
		}
		switch {
		case res.min < merged.min:
			merged.min = res.min
			merged.ties = res.ties
		case res.min == merged.min:
			merged.ties = append(merged.ties, res.ties...)
		}
	}
	return merged
}

func (s *Selector) scanChunk(ctx context.Context, compiled exposure.CompiledSnapshot, lo, hi uint32) chunkResult {
	res := chunkResult{min: math.MaxInt64}
	for i := lo; i < hi; i++ {
		if (i-lo)%ctxCheckEvery == 0 && ctx.Err() != nil {
			res.partial = true
			return res
		}
		liability := compiled.Evaluate(s.source.At(i))
		res.scanned++
		switch {
		case liability < res.min:
			res.min = liability
			res.ties = res.ties[:0]
			res.ties = append(res.ties, i)
		case liability == res.min:
			res.ties = append(res.ties, i)
		}
	}
	return res
}
