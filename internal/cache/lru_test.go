package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_Basic(t *testing.T) {
	c := NewLRU[string, int](2)

	assert.False(t, c.Add("a", 1))
	assert.False(t, c.Add("b", 2))

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used.
	assert.True(t, c.Add("c", 3))
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	hits, misses, evictions := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), evictions)
}

func TestLRU_Update(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Add("a", 1)
	c.Add("a", 10)
	v, _ := c.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_ZeroCapacity(t *testing.T) {
	c := NewLRU[int, int](0)
	c.Add(1, 1)
	c.Add(2, 2)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_GetOrAddOnce(t *testing.T) {
	c := NewLRU[string, int](8)
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.GetOrAdd("k", func() int {
				mu.Lock()
				calls++
				mu.Unlock()
				return 42
			})
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}
