package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/hypervec/distance"
	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/sparse"
)

// SearchResult is a ground-truth neighbor.
type SearchResult struct {
	ID       uint32
	Distance float32
}

// RNG wraps a seeded math/rand source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformRangeVectors(num, dimensions int) []hdc.Vector {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([]hdc.Vector, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}
	return vectors
}

// BipolarVector returns a random {-1, +1} vector.
func (r *RNG) BipolarVector(dimensions int) hdc.Vector {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make(hdc.Vector, dimensions)
	for i := range vec {
		if r.rand.Int63()&1 == 1 {
			vec[i] = 1
		} else {
			vec[i] = -1
		}
	}
	return vec
}

// SparseVector returns a vector with exactly n distinct coordinates in
// [0, dims) and values in [1, sparse.Modulus). n is capped at dims.
func (r *RNG) SparseVector(dims uint32, n int) sparse.Vector {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(n, int(dims))
	v := make(sparse.Vector, n)
	for len(v) < n {
		coord := uint32(r.rand.Int63n(int64(dims)))
		v[coord] = uint16(1 + r.rand.Intn(sparse.Modulus-1))
	}
	return v
}

// ExactTopK returns the k points closest to query by squared Euclidean
// distance. IDs are dataset indices.
func ExactTopK(query hdc.Vector, dataset []hdc.Vector, k int) []SearchResult {
	results := make([]SearchResult, len(dataset))
	for i, v := range dataset {
		results[i] = SearchResult{ID: uint32(i), Distance: distance.SquaredL2(query, v)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

// ComputeRecall computes recall@k by comparing approximate results against ground truth.
func ComputeRecall(groundTruth []SearchResult, approximate []uint32) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))
	truthSet := make(map[uint32]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, id := range approximate {
		if _, ok := truthSet[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
