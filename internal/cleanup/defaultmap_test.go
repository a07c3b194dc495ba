package cleanup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type zeroInt int

func (z zeroInt) IsZero() bool { return z == 0 }

func TestDefaultMapSetErasesZero(t *testing.T) {
	m := NewDefaultMap[string, zeroInt]()
	m.Set("a", zeroInt(5))
	assert.Equal(t, 1, m.Len())

	m.Set("a", zeroInt(0))
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestDefaultMapGetAbsentReturnsZeroValue(t *testing.T) {
	m := NewDefaultMap[string, zeroInt]()
	v, ok := m.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, zeroInt(0), v)
}

func TestDefaultMapMutateAccumulatesAndErases(t *testing.T) {
	m := NewDefaultMap[string, zeroInt]()
	m.Mutate("a", func(cur zeroInt) zeroInt { return cur + 3 })
	v, ok := m.Get("a")
	require := assert.New(t)
	require.True(ok)
	require.Equal(zeroInt(3), v)

	m.Mutate("a", func(cur zeroInt) zeroInt { return cur - 3 })
	_, ok = m.Get("a")
	assert.False(t, ok)
}

func TestDefaultMapDeleteUnconditional(t *testing.T) {
	m := NewDefaultMap[string, zeroInt]()
	m.Set("a", zeroInt(1))
	m.Delete("a")
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestDefaultMapKeysAndRange(t *testing.T) {
	m := NewDefaultMap[string, zeroInt]()
	m.Set("a", zeroInt(1))
	m.Set("b", zeroInt(2))

	assert.ElementsMatch(t, []string{"a", "b"}, m.Keys())

	seen := map[string]zeroInt{}
	m.Range(func(k string, v zeroInt) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]zeroInt{"a": 1, "b": 2}, seen)
}

func TestDefaultMapRangeStopsEarly(t *testing.T) {
	m := NewDefaultMap[string, zeroInt]()
	m.Set("a", zeroInt(1))
	m.Set("b", zeroInt(2))

	count := 0
	m.Range(func(k string, v zeroInt) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
