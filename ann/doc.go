// Package ann implements an approximate nearest neighbor forest over dense
// hypervectors.
//
// A Forest holds ForestSize independent random-projection trees. Each leaf
// that grows past MaxLeafSize is split by the perpendicular bisector of two
// randomly chosen points it contains. A query descends every tree to one
// leaf, unions the leaf contents into a deduplicated candidate set and ranks
// the candidates by true Euclidean distance.
//
// Recall depends on the tree count and leaf size; results are not exact.
//
// Points are never removed implicitly. Rebuild evicts points with a caller
// predicate and reconstructs every tree from the survivors.
package ann
