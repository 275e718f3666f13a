// Package distance provides dense vector kernels.
//
// Kernels take float32 slices and accumulate in float64, so they stay
// accurate on large unnormalized profile vectors.
//
// # Kernels
//
//   - SquaredL2: squared Euclidean distance (ANN forest ranking)
//   - Cosine: cosine similarity (hypervector similarity)
//   - Dot: inner product
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	sim := distance.Cosine(a, b)
//	ok := distance.NormalizeL2InPlace(vec)
package distance
