package di

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	c := New()
	c.Register("foo", 42)

	v, err := c.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestGetUnknownServiceErrors(t *testing.T) {
	c := New()
	_, err := c.Get("missing")
	assert.Error(t, err)
}

func TestRegisterBuilderIsLazyAndMemoized(t *testing.T) {
	c := New()
	calls := 0
	c.RegisterBuilder("lazy", func(c *Container) (interface{}, error) {
		calls++
		return "built", nil
	})

	assert.Equal(t, 0, calls)

	v1, err := c.Get("lazy")
	require.NoError(t, err)
	assert.Equal(t, "built", v1)
	assert.Equal(t, 1, calls)

	v2, err := c.Get("lazy")
	require.NoError(t, err)
	assert.Equal(t, "built", v2)
	assert.Equal(t, 1, calls) // memoized, not rebuilt
}

func TestBuilderErrorPropagates(t *testing.T) {
	c := New()
	wantErr := errors.New("boom")
	c.RegisterBuilder("broken", func(c *Container) (interface{}, error) {
		return nil, wantErr
	})

	_, err := c.Get("broken")
	assert.ErrorIs(t, err, wantErr)
}

func TestMustGetPanicsOnMissing(t *testing.T) {
	c := New()
	assert.Panics(t, func() {
		c.MustGet("missing")
	})
}

func TestHasReflectsServicesAndBuilders(t *testing.T) {
	c := New()
	c.Register("svc", 1)
	c.RegisterBuilder("bld", func(c *Container) (interface{}, error) { return 1, nil })

	assert.True(t, c.Has("svc"))
	assert.True(t, c.Has("bld"))
	assert.False(t, c.Has("nope"))
}

func TestClearRemovesEverything(t *testing.T) {
	c := New()
	c.Register("svc", 1)
	c.Clear()
	assert.False(t, c.Has("svc"))
}

func TestServiceNamesDeduplicatesBuiltAndRegistered(t *testing.T) {
	c := New()
	c.Register("a", 1)
	c.RegisterBuilder("b", func(c *Container) (interface{}, error) { return 1, nil })
	c.Get("b") // materialize b into services too

	names := c.ServiceNames()
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestBuilderCanResolveAnotherService(t *testing.T) {
	c := New()
	c.Register("base", 10)
	c.RegisterBuilder("derived", func(c *Container) (interface{}, error) {
		base, err := c.Get("base")
		if err != nil {
			return nil, err
		}
		return base.(int) * 2, nil
	})

	v, err := c.Get("derived")
	require.NoError(t, err)
	assert.Equal(t, 20, v)
}
