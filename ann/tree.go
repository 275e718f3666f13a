package ann

import (
	"math/rand"

	"github.com/hupe1980/hypervec/distance"
	"github.com/hupe1980/hypervec/hdc"
)

// splitAttempts bounds the search for a non-degenerate bisector.
const splitAttempts = 8

// node is either a leaf (normal == nil) or a hyperplane split.
type node struct {
	normal      []float32
	offset      float32
	left, right *node
	ids         []uint32
}

func (n *node) isLeaf() bool { return n.normal == nil }

// side reports whether v falls on the right side of the hyperplane.
func (n *node) side(v hdc.Vector) bool {
	return distance.Dot(n.normal, v) >= n.offset
}

type tree struct {
	root *node
	rng  *rand.Rand
}

func newTree(seed int64) *tree {
	return &tree{
		root: &node{},
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// leaf descends to the leaf that v belongs to.
func (t *tree) leaf(v hdc.Vector) *node {
	n := t.root
	for !n.isLeaf() {
		if n.side(v) {
			n = n.right
		} else {
			n = n.left
		}
	}
	return n
}

func (t *tree) insert(id uint32, points []DataPoint, maxLeaf int) {
	n := t.leaf(points[id].Vector)
	n.ids = append(n.ids, id)
	if len(n.ids) > maxLeaf {
		t.split(n, points, maxLeaf)
	}
}

// split turns leaf n into an internal node and recurses while a child is
// still oversized. A leaf whose points cannot be separated stays a leaf.
func (t *tree) split(n *node, points []DataPoint, maxLeaf int) {
	for attempt := 0; attempt < splitAttempts; attempt++ {
		i := t.rng.Intn(len(n.ids))
		j := t.rng.Intn(len(n.ids) - 1)
		if j >= i {
			j++
		}
		normal, offset, ok := bisector(points[n.ids[i]].Vector, points[n.ids[j]].Vector)
		if !ok {
			continue
		}

		var left, right []uint32
		for _, id := range n.ids {
			if distance.Dot(normal, points[id].Vector) >= offset {
				right = append(right, id)
			} else {
				left = append(left, id)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		n.normal, n.offset = normal, offset
		n.left, n.right = &node{ids: left}, &node{ids: right}
		n.ids = nil
		if len(left) > maxLeaf {
			t.split(n.left, points, maxLeaf)
		}
		if len(right) > maxLeaf {
			t.split(n.right, points, maxLeaf)
		}
		return
	}
}

// bisector returns the hyperplane equidistant from a and b: normal a-b
// through their midpoint. ok is false when a == b.
func bisector(a, b hdc.Vector) (normal []float32, offset float32, ok bool) {
	normal = make([]float32, len(a))
	mid := make([]float32, len(a))
	nonZero := false
	for i := range a {
		normal[i] = a[i] - b[i]
		mid[i] = (a[i] + b[i]) / 2
		if normal[i] != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return nil, 0, false
	}
	return normal, distance.Dot(normal, mid), true
}

type treeStats struct {
	leaves   int
	maxDepth int
}

func (t *tree) stats() treeStats {
	var s treeStats
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		if n.isLeaf() {
			s.leaves++
			s.maxDepth = max(s.maxDepth, depth)
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(t.root, 0)
	return s
}
