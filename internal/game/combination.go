package game

import (
	"fmt"
)

// CatalogSize is the number of possible five-digit outcomes (00000..99999).
const CatalogSize = 100000

// SumBigThreshold splits the total sum into size buckets: sum < 22 is small.
const SumBigThreshold = 22

// PositionBigThreshold splits a single digit into size buckets: digit < 5 is small.
const PositionBigThreshold = 5

type Parity uint8

const (
	ParityEven Parity = iota
	ParityOdd
)

func (p Parity) String() string {
	if p == ParityOdd {
		return "odd"
	}
	return "even"
}

type Size uint8

const (
	SizeSmall Size = iota
	SizeBig
)

func (s Size) String() string {
	if s == SizeBig {
		return "big"
	}
	return "small"
}

// Combination is one possible outcome of the dice-sum game: five digits
// 0-9 with their derived attributes. Immutable once built.
type Combination struct {
	Index  uint32   `json:"index"`
	Digits [5]uint8 `json:"digits"`
	Sum    uint8    `json:"sum"`
}

// FromIndex builds the combination for a catalog index in [0, CatalogSize).
// Digit A is the most significant decimal digit of the index.
func FromIndex(index uint32) Combination {
	c := Combination{Index: index}
	rem := index
	for i := 4; i >= 0; i-- {
		c.Digits[i] = uint8(rem % 10)
		rem /= 10
	}
	for _, d := range c.Digits {
		c.Sum += d
	}
	return c
}

// Key returns the canonical five-character key, e.g. "07345".
func (c Combination) Key() string {
	return fmt.Sprintf("%05d", c.Index)
}

// ParseKey converts a canonical key back to its combination.
func ParseKey(key string) (Combination, error) {
	if len(key) != 5 {
		return Combination{}, fmt.Errorf("combination key %q: want 5 digits", key)
	}
	var index uint32
	for _, r := range key {
		if r < '0' || r > '9' {
			return Combination{}, fmt.Errorf("combination key %q: want 5 digits", key)
		}
		index = index*10 + uint32(r-'0')
	}
	return FromIndex(index), nil
}

func parityOf(v uint8) Parity {
	if v%2 == 1 {
		return ParityOdd
	}
	return ParityEven
}

// SumParity is the parity of the total sum.
func (c Combination) SumParity() Parity {
	return parityOf(c.Sum)
}

// SumSize buckets the total sum: small below SumBigThreshold, big otherwise.
func (c Combination) SumSize() Size {
	if c.Sum < SumBigThreshold {
		return SizeSmall
	}
	return SizeBig
}

// PositionParity is the parity of a single die, position 0-4 (A-E).
func (c Combination) PositionParity(pos int) Parity {
	return parityOf(c.Digits[pos])
}

// PositionSize buckets a single die: 0-4 small, 5-9 big.
func (c Combination) PositionSize(pos int) Size {
	if c.Digits[pos] < PositionBigThreshold {
		return SizeSmall
	}
	return SizeBig
}

func (c Combination) String() string {
	return fmt.Sprintf("%s (sum=%d %s %s)", c.Key(), c.Sum, c.SumSize(), c.SumParity())
}
