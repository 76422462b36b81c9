package game

import (
	"github.com/shopspring/decimal"
)

// OddsTable converts a stake into the liability a bet adds to the exposure
// ledger. Liabilities are carried as integer minor units; the decimal
// arithmetic happens only here so rounding never drifts per bet path.
type OddsTable struct {
	exactPosition decimal.Decimal
	exactSum      map[uint8]decimal.Decimal
	parity        decimal.Decimal
	size          decimal.Decimal
}

// NewOddsTable returns the standard 5D payout table. Exact-sum odds vary by
// how many combinations produce the sum; two-way propositions pay just
// under 2x.
func NewOddsTable() *OddsTable {
	t := &OddsTable{
		exactPosition: decimal.NewFromFloat(9.0),
		parity:        decimal.NewFromFloat(1.98),
		size:          decimal.NewFromFloat(1.98),
		exactSum:      make(map[uint8]decimal.Decimal, 46),
	}
	// Exact-sum odds by distance from the middle of the distribution.
	// Sums near 22/23 are common (low odds); tail sums are rare (high odds).
	for sum := uint8(0); sum <= 45; sum++ {
		dist := 22 - int(sum)
		if sum >= 23 {
			dist = int(sum) - 23
		}
		odds := 9.0
		switch {
		case dist <= 2:
			odds = 9.0
		case dist <= 6:
			odds = 14.0
		case dist <= 10:
			odds = 24.0
		case dist <= 14:
			odds = 50.0
		case dist <= 18:
			odds = 160.0
		default:
			odds = 800.0
		}
		t.exactSum[sum] = decimal.NewFromFloat(odds)
	}
	return t
}

// Odds returns the payout multiplier for a pattern.
func (t *OddsTable) Odds(p Pattern) decimal.Decimal {
	switch p.Kind {
	case KindExact:
		if p.Scope == ScopeSum {
			return t.exactSum[p.Exact]
		}
		return t.exactPosition
	case KindParity:
		return t.parity
	case KindSize:
		return t.size
	}
	return decimal.Zero
}

// Liability computes stake x odds in minor units, rounded half up to a whole
// unit. stakeMinor is the stake already expressed in minor units.
func (t *OddsTable) Liability(p Pattern, stakeMinor int64) int64 {
	stake := decimal.NewFromInt(stakeMinor)
	return stake.Mul(t.Odds(p)).Round(0).IntPart()
}
