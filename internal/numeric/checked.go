package numeric

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrDivByZero is returned when the divisor is zero.
var ErrDivByZero = errors.New("numeric: division by zero")

// ErrOverflow is returned when a mul-div result cannot be narrowed back
// into the 128-bit range the engine's balances and deltas live in, or
// when the widened intermediate product itself overflows 256 bits.
var ErrOverflow = errors.New("numeric: checked arithmetic overflow")

// ErrUnderflow is returned by Amount.Sub when the subtrahend exceeds
// the minuend.
var ErrUnderflow = errors.New("numeric: balance underflow")

var maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
var minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// widenedAbsProduct multiplies |a| * |b| through a 256-bit intermediate
// so that two 128-bit-range operands never overflow before division,
// mirroring the reference implementation's 4-limb big-integer widening.
func widenedAbsProduct(a, b *big.Int) (*big.Int, error) {
	absA := new(big.Int).Abs(a)
	absB := new(big.Int).Abs(b)

	ua, overflow := uint256.FromBig(absA)
	if overflow {
		return nil, ErrOverflow
	}
	ub, overflow := uint256.FromBig(absB)
	if overflow {
		return nil, ErrOverflow
	}

	product, overflowed := new(uint256.Int).MulOverflow(ua, ub)
	if overflowed {
		return nil, ErrOverflow
	}
	return product.ToBig(), nil
}

func narrowToI128(v *big.Int) (*big.Int, error) {
	if v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
		return nil, ErrOverflow
	}
	return v, nil
}

// narrowToU128 bounds-checks a non-negative balance against the u128
// range Amount lives in. Unlike narrowToI128, the lower bound is zero:
// Amount never holds a negative value, so a balance in [2^127, 2^128)
// is legal and must not be rejected as an overflow.
func narrowToU128(v *big.Int) (*big.Int, error) {
	if v.Sign() < 0 || v.Cmp(maxU128) > 0 {
		return nil, ErrOverflow
	}
	return v, nil
}

// CheckedMulDiv computes trunc(a*b/c), truncating toward zero, through a
// widened intermediate product. Returns ErrDivByZero if c is zero and
// ErrOverflow if the widened product or the final result does not fit.
func CheckedMulDiv(a, b, c *big.Int) (*big.Int, error) {
	if c.Sign() == 0 {
		return nil, ErrDivByZero
	}
	absProduct, err := widenedAbsProduct(a, b)
	if err != nil {
		return nil, err
	}

	q := new(big.Int).Quo(absProduct, new(big.Int).Abs(c))
	if (a.Sign()*b.Sign())*c.Sign() < 0 {
		q.Neg(q)
	}
	return narrowToI128(q)
}

// CheckedMulDivCeil computes ceil(a*b/c) as a mathematical ceiling
// (rounding toward positive infinity, not away from zero), through the
// same widened intermediate.
func CheckedMulDivCeil(a, b, c *big.Int) (*big.Int, error) {
	if c.Sign() == 0 {
		return nil, ErrDivByZero
	}
	absProduct, err := widenedAbsProduct(a, b)
	if err != nil {
		return nil, err
	}

	absC := new(big.Int).Abs(c)
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(absProduct, absC, r)

	negative := (a.Sign() * b.Sign() * c.Sign()) < 0
	if negative {
		q.Neg(q)
		// e.g. -7/2 truncates to -3; the mathematical ceiling is -3 already
		// when there's a remainder, since trunc rounds toward zero which is
		// toward +infinity for negative quotients.
	} else if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return narrowToI128(q)
}

// CheckedMulDivEuclid computes the Euclidean quotient of a*b/c: the
// unique q such that a*b = q*c + r with 0 <= r < |c|. This differs from
// CheckedMulDiv whenever the numerator is negative and the division is
// inexact, which is exactly the case the closure-delta formulas rely on.
func CheckedMulDivEuclid(a, b, c *big.Int) (*big.Int, error) {
	if c.Sign() == 0 {
		return nil, ErrDivByZero
	}
	absProduct, err := widenedAbsProduct(a, b)
	if err != nil {
		return nil, err
	}

	signedProduct := absProduct
	if (a.Sign() * b.Sign()) < 0 {
		signedProduct = new(big.Int).Neg(absProduct)
	}

	q, m := new(big.Int), new(big.Int)
	q.DivMod(signedProduct, c, m) // big.Int's DivMod is Euclidean: 0 <= m < |c|
	return narrowToI128(q)
}
