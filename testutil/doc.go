// Package testutil provides deterministic fixtures for hypervec tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Vectors
//
//	rng := testutil.NewRNG(seed)
//	dense := rng.UniformRangeVectors(100, 64) // values in [-1, 1)
//	bip := rng.BipolarVector(10000)            // values in {-1, +1}
//	sv := rng.SparseVector(16384, 5)           // 5 coordinates in Z16384
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.ExactTopK(query, dataset, k)
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
