// Package hdc implements the dense hypervector algebras used by hypervec.
//
// Two representations share the same shape:
//
//   - Vector: float32 components. Generate yields bipolar {-1,+1} vectors;
//     bundling and external embeddings make them real-valued.
//     Bind is elementwise multiplication, Bundle is elementwise sum.
//   - Cyclic: components in the finite cyclic group Z32 or Z512.
//     Bind is elementwise modular addition (exactly invertible via
//     Inverse), Bundle sums into a wide accumulator and reduces mod m.
//
// Generation is deterministic: components are read from a SHA-256 bit
// stream seeded with the symbol key (1 bit per bipolar component, 5 bits
// for Z32, 9 bits for Z512), so the same (dims, seed) pair always produces
// the same vector.
//
// Binary operations require equal dimensions and return
// *ErrDimensionMismatch otherwise.
package hdc
