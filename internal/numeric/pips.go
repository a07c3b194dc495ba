// Package numeric implements the engine's fixed-point fee type and the
// widened checked-arithmetic helpers every percentage-sensitive
// computation in the engine is built on.
package numeric

import (
	"errors"
	"math/big"
)

// ErrPipsOutOfRange is returned by constructors when a value falls
// outside 0..=MaxPips.
var ErrPipsOutOfRange = errors.New("numeric: pips value out of range")

// Pips is a fraction in millionths: 1 pip = 10^-6. It wraps a uint32
// constrained to 0..=MaxPips.
type Pips uint32

const (
	// ZeroPips is the zero fee.
	ZeroPips Pips = 0
	// OnePip is 10^-6.
	OnePip Pips = 1
	// OneBip is one basis point, 100 pips.
	OneBip Pips = 100
	// OnePercent is 10,000 pips.
	OnePercent Pips = 10_000
	// MaxPips is the largest representable fraction, 1.0 exactly.
	MaxPips Pips = 1_000_000
)

// NewPips validates and constructs a Pips value.
func NewPips(v uint32) (Pips, error) {
	if v > uint32(MaxPips) {
		return 0, ErrPipsOutOfRange
	}
	return Pips(v), nil
}

// Invert returns the complementary fraction, MaxPips - p.
func (p Pips) Invert() Pips {
	return MaxPips - p
}

// Fee returns floor(amount * p / MaxPips).
func (p Pips) Fee(amount *big.Int) *big.Int {
	if amount.Sign() == 0 || p == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount, big.NewInt(int64(p)))
	den := big.NewInt(int64(MaxPips))
	q := new(big.Int)
	q.Quo(num, den)
	return q
}

// FeeCeil returns ceil(amount * p / MaxPips), rounding half-away-from-zero up.
func (p Pips) FeeCeil(amount *big.Int) *big.Int {
	if amount.Sign() == 0 || p == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount, big.NewInt(int64(p)))
	den := big.NewInt(int64(MaxPips))
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(num, den, r)
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
