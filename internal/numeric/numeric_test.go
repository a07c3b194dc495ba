package numeric

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountAddOverflow(t *testing.T) {
	max, err := NewAmount(maxU128).Add(ZeroAmount())
	require.NoError(t, err)
	_, err = max.Add(AmountFromUint64(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAmountAddAboveI128RangeSucceeds(t *testing.T) {
	// A balance in [2^127, 2^128) is a legal u128 amount even though it
	// overflows the signed i128 range deltas live in.
	aboveI128 := new(big.Int).Add(maxI128, big.NewInt(1))
	sum, err := NewAmount(aboveI128).Add(AmountFromUint64(1))
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(aboveI128, big.NewInt(1)), sum.Big())
}

func TestAmountSubUnderflow(t *testing.T) {
	a := AmountFromUint64(5)
	b := AmountFromUint64(10)
	_, err := a.Sub(b)
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestAmountSubHappyPath(t *testing.T) {
	a := AmountFromUint64(10)
	b := AmountFromUint64(4)
	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "6", diff.String())
}

func TestParseAmountRejectsNegative(t *testing.T) {
	_, err := ParseAmount("-1")
	assert.Error(t, err)
}

func TestParseAmountRoundTrip(t *testing.T) {
	a, err := ParseAmount("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", a.String())
}

func TestDeltaAddAndNeg(t *testing.T) {
	d1 := DeltaFromInt64(5)
	d2 := DeltaFromInt64(-3)
	sum := d1.Add(d2)
	assert.Equal(t, "2", sum.String())
	assert.Equal(t, "-2", sum.Neg().String())
}

func TestDeltaIsZero(t *testing.T) {
	assert.True(t, ZeroDelta().IsZero())
	assert.False(t, DeltaFromInt64(1).IsZero())
}

func TestDeltaAbsReturnsAmount(t *testing.T) {
	d := DeltaFromInt64(-42)
	assert.Equal(t, "42", d.Abs().String())
}

func TestAmountAsDelta(t *testing.T) {
	a := AmountFromUint64(7)
	assert.Equal(t, "7", a.AsDelta(false).String())
	assert.Equal(t, "-7", a.AsDelta(true).String())
}

func TestPipsNewRejectsOutOfRange(t *testing.T) {
	_, err := NewPips(uint32(MaxPips) + 1)
	assert.ErrorIs(t, err, ErrPipsOutOfRange)
}

func TestPipsInvert(t *testing.T) {
	p, err := NewPips(300_000)
	require.NoError(t, err)
	assert.Equal(t, Pips(700_000), p.Invert())
}

func TestPipsFeeFloorsDown(t *testing.T) {
	p := OnePercent
	fee := p.Fee(big.NewInt(999))
	assert.Equal(t, big.NewInt(9), fee)
}

func TestPipsFeeCeilRoundsUp(t *testing.T) {
	p := OnePercent
	fee := p.FeeCeil(big.NewInt(999))
	assert.Equal(t, big.NewInt(10), fee)
}

func TestPipsFeeZeroAmount(t *testing.T) {
	assert.Equal(t, big.NewInt(0), OnePercent.Fee(big.NewInt(0)))
}

func TestCheckedMulDivBasic(t *testing.T) {
	q, err := CheckedMulDiv(big.NewInt(10), big.NewInt(3), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(15), q)
}

func TestCheckedMulDivDivByZero(t *testing.T) {
	_, err := CheckedMulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestCheckedMulDivTruncatesTowardZero(t *testing.T) {
	q, err := CheckedMulDiv(big.NewInt(-7), big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-3), q)
}

func TestCheckedMulDivCeilPositive(t *testing.T) {
	q, err := CheckedMulDivCeil(big.NewInt(7), big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4), q)
}

func TestCheckedMulDivCeilNegative(t *testing.T) {
	q, err := CheckedMulDivCeil(big.NewInt(-7), big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-3), q)
}

func TestCheckedMulDivEuclidNonNegativeRemainder(t *testing.T) {
	q, err := CheckedMulDivEuclid(big.NewInt(-7), big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	// -7 = q*2 + r with 0 <= r < 2 => q = -4, r = 1
	assert.Equal(t, big.NewInt(-4), q)
}

func TestCheckedMulDivOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	_, err := CheckedMulDiv(huge, huge, big.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)
}
