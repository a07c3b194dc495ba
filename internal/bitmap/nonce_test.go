package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nonceFromByte(last byte) Nonce {
	var n Nonce
	n[NonceSize-1] = last
	return n
}

func TestCommitNonceConsumesOnce(t *testing.T) {
	b := New()
	n := nonceFromByte(7)

	assert.True(t, b.CommitNonce(n))
	assert.False(t, b.CommitNonce(n))
}

func TestGetReflectsSetAndClear(t *testing.T) {
	b := New()
	n := nonceFromByte(42)

	assert.False(t, b.Get(n))
	b.Set(n)
	assert.True(t, b.Get(n))
	b.Clear(n)
	assert.False(t, b.Get(n))
}

func TestSetReturnsPreviousValue(t *testing.T) {
	b := New()
	n := nonceFromByte(1)

	assert.False(t, b.Set(n))
	assert.True(t, b.Set(n))
}

func TestToggleFlipsBit(t *testing.T) {
	b := New()
	n := nonceFromByte(200)

	assert.True(t, b.Toggle(n))
	assert.True(t, b.Get(n))
	assert.False(t, b.Toggle(n))
	assert.False(t, b.Get(n))
}

func TestClearEmptiesWordEntry(t *testing.T) {
	b := New()
	n := nonceFromByte(3)
	b.Set(n)
	require_ := assert.New(t)
	require_.Len(b.Words(), 1)

	b.Clear(n)
	require_.Len(b.Words(), 0)
}

func TestDistinctWordsAreIndependent(t *testing.T) {
	b := New()
	var n1, n2 Nonce
	n1[0] = 1
	n1[NonceSize-1] = 5
	n2[0] = 2
	n2[NonceSize-1] = 5

	b.Set(n1)
	assert.True(t, b.Get(n1))
	assert.False(t, b.Get(n2))
}

func TestCloneIsIndependentCopy(t *testing.T) {
	b := New()
	n := nonceFromByte(9)
	b.Set(n)

	clone := b.Clone()
	assert.True(t, clone.Get(n))

	clone.Clear(n)
	assert.True(t, b.Get(n))
	assert.False(t, clone.Get(n))
}

func TestBitsWithinSameWordAreIndependent(t *testing.T) {
	b := New()
	a := nonceFromByte(0)
	c := nonceFromByte(1)

	b.Set(a)
	assert.True(t, b.Get(a))
	assert.False(t, b.Get(c))
}
