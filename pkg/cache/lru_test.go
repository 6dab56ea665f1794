package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/cache"
)

func TestLRU_Basic(t *testing.T) {
	t.Parallel()

	t.Run("put and get", func(t *testing.T) {
		c := cache.NewLRU[string, int](3)

		c.Put("a", 1)
		c.Put("b", 2)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)

		val, ok = c.Get("b")
		assert.True(t, ok)
		assert.Equal(t, 2, val)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get missing", func(t *testing.T) {
		c := cache.NewLRU[string, int](3)

		val, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Zero(t, val)
	})

	t.Run("put replaces existing", func(t *testing.T) {
		c := cache.NewLRU[string, int](3)

		c.Put("a", 1)
		old, existed := c.Put("a", 2)
		assert.True(t, existed)
		assert.Equal(t, 1, old)

		val, _ := c.Get("a")
		assert.Equal(t, 2, val)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("non-positive capacity is unbounded", func(t *testing.T) {
		c := cache.NewLRU[int, int](0)
		for i := range 1000 {
			c.Put(i, i)
		}
		assert.Equal(t, 1000, c.Len())
		assert.Equal(t, 0, c.Cap())
	})
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("drops least recently used and fires callback", func(t *testing.T) {
		c := cache.NewLRU[string, int](2)

		var evicted []string
		c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

		c.Put("a", 1)
		c.Put("b", 2)
		c.Get("a") // b is now oldest
		c.Put("c", 3)

		_, ok := c.Peek("b")
		assert.False(t, ok)
		assert.Equal(t, []string{"b"}, evicted)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("peek does not promote", func(t *testing.T) {
		c := cache.NewLRU[string, int](2)

		var evicted []string
		c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

		c.Put("a", 1)
		c.Put("b", 2)
		c.Peek("a")
		c.Put("c", 3)

		assert.Equal(t, []string{"a"}, evicted)
	})

	t.Run("explicit removal does not fire callback", func(t *testing.T) {
		c := cache.NewLRU[string, int](2)

		called := false
		c.OnEvict(func(string, int) { called = true })

		c.Put("a", 1)
		val, ok := c.Remove("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)
		assert.False(t, called)
	})
}

func TestLRU_RemoveIf(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](0)
	c.Put("a", 1)

	_, ok := c.RemoveIf("a", func(v int) bool { return v == 2 })
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	val, ok := c.RemoveIf("a", func(v int) bool { return v == 1 })
	assert.True(t, ok)
	assert.Equal(t, 1, val)
	assert.Equal(t, 0, c.Len())

	_, ok = c.RemoveIf("missing", nil)
	assert.False(t, ok)
}

func TestLRU_RangeAndDrain(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](0)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	var keys []string
	c.Range(func(key string, _ int) bool {
		keys = append(keys, key)
		return true
	})
	assert.Equal(t, []string{"c", "b", "a"}, keys)

	var first []string
	c.Range(func(key string, _ int) bool {
		first = append(first, key)
		return false
	})
	assert.Equal(t, []string{"c"}, first)

	values := c.Drain()
	assert.Equal(t, []int{3, 2, 1}, values)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[int, int](64)

	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range 500 {
				key := (g*500 + i) % 128
				c.Put(key, i)
				c.Get(key)
				if i%7 == 0 {
					c.Remove(key)
				}
			}
		}(g)
	}
	wg.Wait()

	require.LessOrEqual(t, c.Len(), 64)
}
