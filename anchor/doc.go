// Package anchor implements streaming, bounded-memory clustering of sparse
// hypervectors.
//
// A Learner keeps a growing list of prototype vectors ("anchors"). Each
// Learn call either reinforces the closest anchor or creates a new one, and
// every anchor is compressed back to at most MaxDimensions coordinates. The
// compression is lossy by construction: low-ranked coordinates are dropped.
//
// Closeness is tolerance-banded: a shared coordinate matches when the
// circular distance between its two values in Z16384 is at most the
// tolerance. Only anchors sharing a coordinate with the input are scored;
// they are found through a roaring-bitmap inverted index.
//
// Anchors are never deleted.
package anchor
