package exposure

import (
	"github.com/winforge/fived-engine/internal/game"
)

// CompiledSnapshot is a ledger snapshot with its pattern keys parsed once,
// so evaluating 100,000 candidate combinations does not re-parse strings.
// Malformed keys are set aside rather than failing the scan.
type CompiledSnapshot struct {
	entries   []compiledEntry
	Malformed []string
}

type compiledEntry struct {
	pattern   game.Pattern
	liability int64
}

// Compile parses every pattern key in the snapshot. Unrecognized keys land
// in Malformed for the caller to count and log.
func Compile(snapshot map[string]int64) CompiledSnapshot {
	cs := CompiledSnapshot{entries: make([]compiledEntry, 0, len(snapshot))}
	for key, liability := range snapshot {
		pattern, err := game.ParsePattern(key)
		if err != nil {
			cs.Malformed = append(cs.Malformed, key)
			continue
		}
		cs.entries = append(cs.entries, compiledEntry{pattern: pattern, liability: liability})
	}
	return cs
}

// Empty reports whether no well-formed liability is recorded.
func (cs CompiledSnapshot) Empty() bool {
	return len(cs.entries) == 0
}

// Evaluate returns the total liability the platform would owe if the
// combination were declared the outcome. Pure function; safe to call
// concurrently from scan workers.
func (cs CompiledSnapshot) Evaluate(c game.Combination) int64 {
	var total int64
	for _, entry := range cs.entries {
		if entry.pattern.Matches(c) {
			total += entry.liability
		}
	}
	return total
}

// Evaluate computes total liability for one combination against a raw
// snapshot. Convenience path for one-off evaluation; scans should compile
// the snapshot once instead.
func Evaluate(c game.Combination, snapshot map[string]int64) int64 {
	return Compile(snapshot).Evaluate(c)
}
