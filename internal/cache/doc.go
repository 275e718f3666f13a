// Package cache provides a generic LRU map.
//
// The codebook uses it to bound memoized symbol vectors. Capacity counts
// entries, not bytes: every cached vector of a given codebook has the same
// dimension, so entry count is a faithful memory proxy.
package cache
