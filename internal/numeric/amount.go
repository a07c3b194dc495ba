package numeric

import (
	"fmt"
	"math/big"
)

// Delta is a signed i128-range balance change. It implements
// cleanup.Zeroable so DefaultMap entries erase themselves once a
// running delta returns to zero.
type Delta struct {
	v *big.Int
}

// ZeroDelta is the additive identity.
func ZeroDelta() Delta { return Delta{v: big.NewInt(0)} }

// NewDelta wraps n as a Delta. A nil n is treated as zero.
func NewDelta(n *big.Int) Delta {
	if n == nil {
		return ZeroDelta()
	}
	return Delta{v: new(big.Int).Set(n)}
}

// DeltaFromInt64 wraps a plain int64 delta.
func DeltaFromInt64(n int64) Delta {
	return Delta{v: big.NewInt(n)}
}

// Big returns the underlying big.Int. Callers must not mutate it.
func (d Delta) Big() *big.Int {
	if d.v == nil {
		return big.NewInt(0)
	}
	return d.v
}

// IsZero implements cleanup.Zeroable.
func (d Delta) IsZero() bool {
	return d.v == nil || d.v.Sign() == 0
}

// Sign returns -1, 0 or 1.
func (d Delta) Sign() int {
	if d.v == nil {
		return 0
	}
	return d.v.Sign()
}

// Add returns d + other.
func (d Delta) Add(other Delta) Delta {
	return Delta{v: new(big.Int).Add(d.Big(), other.Big())}
}

// Neg returns -d.
func (d Delta) Neg() Delta {
	return Delta{v: new(big.Int).Neg(d.Big())}
}

// Abs returns an Amount with magnitude |d|.
func (d Delta) Abs() Amount {
	return Amount{v: new(big.Int).Abs(d.Big())}
}

// Amount is an unsigned u128-range balance. It implements
// cleanup.Zeroable.
type Amount struct {
	v *big.Int
}

// ZeroAmount is the additive identity.
func ZeroAmount() Amount { return Amount{v: big.NewInt(0)} }

// NewAmount wraps n as an Amount. Panics if n is negative — callers must
// validate sign at the boundary where a signed value becomes a balance.
func NewAmount(n *big.Int) Amount {
	if n == nil {
		return ZeroAmount()
	}
	if n.Sign() < 0 {
		panic("numeric: negative amount")
	}
	return Amount{v: new(big.Int).Set(n)}
}

// AmountFromUint64 wraps a plain uint64 amount.
func AmountFromUint64(n uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(n)}
}

// Big returns the underlying big.Int. Callers must not mutate it.
func (a Amount) Big() *big.Int {
	if a.v == nil {
		return big.NewInt(0)
	}
	return a.v
}

// IsZero implements cleanup.Zeroable.
func (a Amount) IsZero() bool {
	return a.v == nil || a.v.Sign() == 0
}

// Cmp compares two amounts.
func (a Amount) Cmp(other Amount) int {
	return a.Big().Cmp(other.Big())
}

// Add returns a + other, checked against u128 overflow.
func (a Amount) Add(other Amount) (Amount, error) {
	sum := new(big.Int).Add(a.Big(), other.Big())
	if _, err := narrowToU128(sum); err != nil {
		return Amount{}, err
	}
	return Amount{v: sum}, nil
}

// Sub returns a - other, erroring on underflow (a < other).
func (a Amount) Sub(other Amount) (Amount, error) {
	if a.Cmp(other) < 0 {
		return Amount{}, ErrUnderflow
	}
	return Amount{v: new(big.Int).Sub(a.Big(), other.Big())}, nil
}

// String renders the amount in base 10, for wire encoding and logging.
func (a Amount) String() string {
	return a.Big().String()
}

// ParseAmount parses a base-10, non-negative integer string into an Amount.
func ParseAmount(s string) (Amount, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("numeric: invalid amount %q", s)
	}
	if n.Sign() < 0 {
		return Amount{}, fmt.Errorf("numeric: negative amount %q", s)
	}
	return Amount{v: n}, nil
}

// String renders the delta in base 10, for wire encoding and logging.
func (d Delta) String() string {
	return d.Big().String()
}

// ParseDelta parses a base-10, optionally signed integer string into a Delta.
func ParseDelta(s string) (Delta, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Delta{}, fmt.Errorf("numeric: invalid delta %q", s)
	}
	return Delta{v: n}, nil
}

// AsDelta returns a signed Delta with the given sign applied to a's magnitude.
func (a Amount) AsDelta(negative bool) Delta {
	v := new(big.Int).Set(a.Big())
	if negative {
		v.Neg(v)
	}
	return Delta{v: v}
}
