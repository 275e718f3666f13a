package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/hypervec/distance"
	"github.com/hupe1980/hypervec/sparse"
)

func TestUniformRangeVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformRangeVectors(8, 32)

	assert.Len(t, v, 8)
	assert.Len(t, v[0], 32)
	for _, vec := range v {
		for _, x := range vec {
			assert.GreaterOrEqual(t, x, float32(-1))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestBipolarVector(t *testing.T) {
	v := NewRNG(1).BipolarVector(256)
	for _, x := range v {
		assert.Contains(t, []float32{-1, 1}, x)
	}
	assert.InDelta(t, 16.0, float64(distance.Norm(v)), 1e-5)
}

func TestSparseVector(t *testing.T) {
	rng := NewRNG(7)

	v := rng.SparseVector(100, 5)
	assert.Len(t, v, 5)
	assert.NoError(t, v.Validate())
	for k := range v {
		assert.Less(t, k, uint32(100))
	}

	assert.Len(t, rng.SparseVector(3, 10), 3)
	assert.Equal(t, sparse.Vector{}, rng.SparseVector(10, 0))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UniformRangeVectors(1, 10)

	rng.Reset()
	v2 := rng.UniformRangeVectors(1, 10)

	assert.Equal(t, v1, v2)
}

func TestExactTopKAndRecall(t *testing.T) {
	rng := NewRNG(3)
	data := rng.UniformRangeVectors(50, 8)

	truth := ExactTopK(data[10], data, 5)
	assert.Len(t, truth, 5)
	assert.Equal(t, uint32(10), truth[0].ID)
	assert.Zero(t, truth[0].Distance)

	ids := make([]uint32, len(truth))
	for i, r := range truth {
		ids[i] = r.ID
	}
	assert.InDelta(t, 1.0, ComputeRecall(truth, ids), 1e-12)
	assert.InDelta(t, 0.5, ComputeRecall(truth, []uint32{10, 999}), 1e-12)
}
