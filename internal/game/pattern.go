package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedPattern reports an unrecognized bet-pattern key. Callers skip
// the offending key and keep scanning; silently dropping it would hide
// ledger corruption.
var ErrMalformedPattern = errors.New("malformed bet-pattern key")

// Scope names what a bet pattern applies to: the total sum or one of the
// five die positions.
type Scope uint8

const (
	ScopeSum Scope = iota
	ScopeA
	ScopeB
	ScopeC
	ScopeD
	ScopeE
)

var scopeNames = [...]string{"SUM", "A", "B", "C", "D", "E"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "?"
}

// Position returns the die index for position scopes, or -1 for ScopeSum.
func (s Scope) Position() int {
	if s == ScopeSum {
		return -1
	}
	return int(s) - 1
}

// Kind is the bettable proposition type within a scope.
type Kind uint8

const (
	KindExact Kind = iota
	KindParity
	KindSize
)

// Pattern is a bet-pattern key as a tagged variant: exactly one of Exact,
// Parity or Size is meaningful depending on Kind. It replaces the ad-hoc
// key strings the ledger is keyed by on the wire.
type Pattern struct {
	Scope  Scope
	Kind   Kind
	Exact  uint8
	Parity Parity
	Size   Size
}

func ExactSum(sum uint8) Pattern {
	return Pattern{Scope: ScopeSum, Kind: KindExact, Exact: sum}
}

func SumParityIs(p Parity) Pattern {
	return Pattern{Scope: ScopeSum, Kind: KindParity, Parity: p}
}

func SumSizeIs(s Size) Pattern {
	return Pattern{Scope: ScopeSum, Kind: KindSize, Size: s}
}

func PositionExact(scope Scope, digit uint8) Pattern {
	return Pattern{Scope: scope, Kind: KindExact, Exact: digit}
}

func PositionParityIs(scope Scope, p Parity) Pattern {
	return Pattern{Scope: scope, Kind: KindParity, Parity: p}
}

func PositionSizeIs(scope Scope, s Size) Pattern {
	return Pattern{Scope: scope, Kind: KindSize, Size: s}
}

// Matches reports whether the combination satisfies this pattern.
func (p Pattern) Matches(c Combination) bool {
	switch p.Kind {
	case KindExact:
		if p.Scope == ScopeSum {
			return c.Sum == p.Exact
		}
		return c.Digits[p.Scope.Position()] == p.Exact
	case KindParity:
		if p.Scope == ScopeSum {
			return c.SumParity() == p.Parity
		}
		return c.PositionParity(p.Scope.Position()) == p.Parity
	case KindSize:
		if p.Scope == ScopeSum {
			return c.SumSize() == p.Size
		}
		return c.PositionSize(p.Scope.Position()) == p.Size
	}
	return false
}

// String renders the canonical wire form, e.g. "SUM:EXACT:23", "A:PARITY:odd",
// "SUM:SIZE:big".
func (p Pattern) String() string {
	switch p.Kind {
	case KindExact:
		return fmt.Sprintf("%s:EXACT:%d", p.Scope, p.Exact)
	case KindParity:
		return fmt.Sprintf("%s:PARITY:%s", p.Scope, p.Parity)
	case KindSize:
		return fmt.Sprintf("%s:SIZE:%s", p.Scope, p.Size)
	}
	return "?"
}

func parseScope(s string) (Scope, bool) {
	for i, name := range scopeNames {
		if s == name {
			return Scope(i), true
		}
	}
	return 0, false
}

// ParsePattern parses the canonical wire form back into a Pattern.
func ParsePattern(key string) (Pattern, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return Pattern{}, fmt.Errorf("%w: %q", ErrMalformedPattern, key)
	}

	scope, ok := parseScope(parts[0])
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %q: unknown scope %q", ErrMalformedPattern, key, parts[0])
	}

	switch parts[1] {
	case "EXACT":
		v, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: %q: bad exact value", ErrMalformedPattern, key)
		}
		max := uint64(9)
		if scope == ScopeSum {
			max = 45
		}
		if v > max {
			return Pattern{}, fmt.Errorf("%w: %q: exact value out of range", ErrMalformedPattern, key)
		}
		return Pattern{Scope: scope, Kind: KindExact, Exact: uint8(v)}, nil
	case "PARITY":
		switch parts[2] {
		case "even":
			return Pattern{Scope: scope, Kind: KindParity, Parity: ParityEven}, nil
		case "odd":
			return Pattern{Scope: scope, Kind: KindParity, Parity: ParityOdd}, nil
		}
		return Pattern{}, fmt.Errorf("%w: %q: bad parity value", ErrMalformedPattern, key)
	case "SIZE":
		switch parts[2] {
		case "small":
			return Pattern{Scope: scope, Kind: KindSize, Size: SizeSmall}, nil
		case "big":
			return Pattern{Scope: scope, Kind: KindSize, Size: SizeBig}, nil
		}
		return Pattern{}, fmt.Errorf("%w: %q: bad size value", ErrMalformedPattern, key)
	}
	return Pattern{}, fmt.Errorf("%w: %q: unknown kind %q", ErrMalformedPattern, key, parts[1])
}
