package codebook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hypervec/hdc"
)

func TestCodebook_Memoizes(t *testing.T) {
	calls := 0
	cb := New(func(dims int, key string) hdc.Vector {
		calls++
		return hdc.Generate(dims, key)
	})

	a := cb.Get("click", 64)
	b := cb.Get("click", 64)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, calls)

	// Dimension is part of the key.
	c := cb.Get("click", 128)
	assert.Len(t, c, 128)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, cb.Len())

	s := cb.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(2), s.Misses)
}

func TestCodebook_MatchesGenerate(t *testing.T) {
	cb := NewBipolar()
	assert.Equal(t, hdc.Generate(256, "apple"), cb.Get("apple", 256))

	z, err := NewCyclic(hdc.Z512)
	require.NoError(t, err)
	assert.True(t, hdc.Z512.Generate(256, "apple").Equal(z.Get("apple", 256)))

	_, err = NewCyclic(hdc.Modulus(3))
	assert.ErrorIs(t, err, hdc.ErrInvalidModulus)
}

func TestCodebook_IndependentInstances(t *testing.T) {
	z32, err := NewCyclic(hdc.Z32)
	require.NoError(t, err)
	z512, err := NewCyclic(hdc.Z512)
	require.NoError(t, err)

	assert.Equal(t, hdc.Z32, z32.Get("k", 8).Modulus())
	assert.Equal(t, hdc.Z512, z512.Get("k", 8).Modulus())
}

func TestCodebook_NFCNormalization(t *testing.T) {
	cb := NewBipolar()
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.Equal(t, cb.Get(composed, 128), cb.Get(decomposed, 128))
	assert.Equal(t, 1, cb.Len())

	raw := NewBipolar(WithoutNormalization())
	assert.NotEqual(t, raw.Get(composed, 128), raw.Get(decomposed, 128))
}

func TestCodebook_BoundedIsDeterministic(t *testing.T) {
	cb := NewBipolar(WithCapacity(2))
	first := cb.Get("a", 64).Clone()
	cb.Get("b", 64)
	cb.Get("c", 64) // evicts "a"
	assert.Equal(t, 2, cb.Len())
	assert.Equal(t, first, cb.Get("a", 64))
	assert.Greater(t, cb.Stats().Evictions, int64(0))
}

func TestCodebook_Concurrent(t *testing.T) {
	cb := NewBipolar()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, k := range []string{"a", "b", "c"} {
				assert.Len(t, cb.Get(k, 100), 100)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, cb.Len())
}
