package cache

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Run("set get delete", func(t *testing.T) {
		c := New()
		c.Set("k", 42, time.Minute)

		v, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, 42, v)

		c.Delete("k")
		_, ok = c.Get("k")
		assert.False(t, ok)
	})

	t.Run("delete prefix only touches matching keys", func(t *testing.T) {
		c := New()
		c.Set(fmt.Sprintf(CacheKeyJellyfinItem, "a"), 1, time.Minute)
		c.Set(CacheKeyJellyfinUsers, 2, time.Minute)
		c.Set(fmt.Sprintf(CacheKeyPlayedState, "u", "i"), true, time.Minute)

		c.DeletePrefix(PrefixJellyfin)

		assert.Equal(t, 1, c.Count())
		_, ok := c.Get(fmt.Sprintf(CacheKeyPlayedState, "u", "i"))
		assert.True(t, ok)
	})

	t.Run("get or set caches successes only", func(t *testing.T) {
		c := New()
		calls := 0
		fn := func() (any, error) {
			calls++
			return "value", nil
		}

		v, err := c.GetOrSet("key", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, "value", v)

		_, err = c.GetOrSet("key", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)

		_, err = c.GetOrSet("bad", time.Minute, func() (any, error) { return nil, errors.New("boom") })
		assert.Error(t, err)
		_, ok := c.Get("bad")
		assert.False(t, ok)
	})

	t.Run("swap returns previous value", func(t *testing.T) {
		c := New()

		_, found := c.Swap("played", true, time.Minute)
		assert.False(t, found)

		prev, found := c.Swap("played", false, time.Minute)
		assert.True(t, found)
		assert.Equal(t, true, prev)
	})
}
