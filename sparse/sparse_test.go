package sparse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a := Generate("item-42", DefaultDimensions, 5)
	b := Generate("item-42", DefaultDimensions, 5)
	assert.True(t, a.Equal(b))
	assert.LessOrEqual(t, len(a), 5)
	assert.NotEmpty(t, a)
	require.NoError(t, a.Validate())
	for k := range a {
		assert.Less(t, k, uint32(DefaultDimensions))
	}

	c := Generate("item-43", DefaultDimensions, 5)
	assert.False(t, a.Equal(c))
}

func TestGenerate_CollisionsShrink(t *testing.T) {
	// Two coordinates only: twenty draws must collide.
	v := Generate("x", 2, 20)
	assert.LessOrEqual(t, len(v), 2)
}

func TestGenerate_ZeroDims(t *testing.T) {
	assert.Empty(t, Generate("x", 0, 5))
	assert.Empty(t, Generate("x", 100, 0))
}

func TestAdd_Example(t *testing.T) {
	got := Add(Vector{5: 100}, Vector{5: 200, 9: 50})
	assert.Equal(t, Vector{5: 300, 9: 50}, got)
}

func TestAdd_Wraps(t *testing.T) {
	got := Add(Vector{1: 16000, 2: 8192}, Vector{1: 1000, 2: 8192})
	assert.Equal(t, Vector{1: 616}, got)
}

func TestAdd_Commutative(t *testing.T) {
	for i := 0; i < 50; i++ {
		a := Generate(fmt.Sprintf("a%d", i), 64, 5)
		b := Generate(fmt.Sprintf("b%d", i), 64, 5)
		assert.True(t, Add(a, b).Equal(Add(b, a)))
	}
}

func TestAdd_DoesNotMutate(t *testing.T) {
	a := Vector{1: 1}
	b := Vector{1: 2}
	_ = Add(a, b)
	assert.Equal(t, Vector{1: 1}, a)
	assert.Equal(t, Vector{1: 2}, b)
}

func TestSimilarity(t *testing.T) {
	q := Vector{1: 2, 2: 3}
	d := Vector{2: 10, 3: 7, 4: 1}
	assert.Equal(t, 30.0, Similarity(q, d))
	assert.Equal(t, 30.0, Similarity(d, q))
	assert.Equal(t, 0.0, Similarity(q, Vector{}))
}

func TestKeysAndSupport(t *testing.T) {
	v := Vector{9: 1, 3: 1, 7: 1}
	assert.Equal(t, []uint32{3, 7, 9}, v.Keys())
	s := v.Support()
	assert.Equal(t, uint64(3), s.GetCardinality())
	assert.True(t, s.Contains(7))
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Vector{1: 0}.Validate(), ErrValueOutOfRange)
	assert.ErrorIs(t, Vector{1: Modulus}.Validate(), ErrValueOutOfRange)
	assert.NoError(t, Vector{1: Modulus - 1}.Validate())
}
