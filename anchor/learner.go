package anchor

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/hypervec/sparse"
)

// ErrInvalidInput is returned for empty or out-of-range input vectors.
// The learner is not mutated when it is returned.
var ErrInvalidInput = errors.New("anchor: invalid input vector")

// Action is the outcome of a Learn call.
type Action uint8

const (
	// Created means the input started a new anchor.
	Created Action = iota + 1
	// Reinforced means the input was merged into an existing anchor.
	Reinforced
)

func (a Action) String() string {
	switch a {
	case Created:
		return "created"
	case Reinforced:
		return "reinforced"
	default:
		return "none"
	}
}

// Result describes what Learn did with one input vector.
type Result struct {
	Action Action
	// Anchor is the index of the created or reinforced anchor.
	Anchor int
	// Score is the best closeness score seen before the decision.
	Score float64
}

type anchorState struct {
	vec    sparse.Vector
	counts map[uint32]uint32 // reinforcement counter per retained coordinate
}

// Learner clusters sparse vectors online into bounded-size anchors.
// It is safe for concurrent use; Learn calls are serialized.
type Learner struct {
	mu      sync.RWMutex
	opts    options
	anchors []*anchorState
	// index maps a coordinate to the ids of anchors that retain it.
	index map[uint32]*roaring.Bitmap

	processed      uint64
	reinforcements uint64
	created        uint64
	rejected       uint64
}

// New creates an empty Learner.
func New(optFns ...Option) (*Learner, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Learner{
		opts:  opts,
		index: make(map[uint32]*roaring.Bitmap),
	}, nil
}

// MaxDimensions returns the per-anchor coordinate cap.
func (l *Learner) MaxDimensions() int { return l.opts.maxDimensions }

// Strategy returns the compression strategy.
func (l *Learner) Strategy() Strategy { return l.opts.strategy }

func validateInput(v sparse.Vector) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidInput)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// Learn folds v into the anchor set.
//
// If no anchor exists, or the best closeness score is below threshold, v
// becomes a new anchor. Otherwise it is merged into the best anchor with
// sparse.Add. Either way the touched anchor is compressed to MaxDimensions.
func (l *Learner) Learn(v sparse.Vector, threshold float64) (Result, error) {
	if err := validateInput(v); err != nil {
		l.mu.Lock()
		l.rejected++
		l.mu.Unlock()
		return Result{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.processed++

	best, score := l.bestMatch(v)
	if best < 0 || score < threshold {
		id := l.create(v)
		l.opts.logger.Debug("anchor created", "anchor", id, "score", score, "dimensions", len(l.anchors[id].vec))
		return Result{Action: Created, Anchor: id, Score: score}, nil
	}

	l.reinforce(best, v)
	l.opts.logger.Debug("anchor reinforced", "anchor", best, "score", score, "dimensions", len(l.anchors[best].vec))
	return Result{Action: Reinforced, Anchor: best, Score: score}, nil
}

// LearnBatch calls Learn for every vector in order. Invalid vectors are
// skipped with a zero Result and their errors are joined.
func (l *Learner) LearnBatch(vs []sparse.Vector, threshold float64) ([]Result, error) {
	results := make([]Result, len(vs))
	var errs []error
	for i, v := range vs {
		r, err := l.Learn(v, threshold)
		if err != nil {
			errs = append(errs, fmt.Errorf("vector %d: %w", i, err))
			continue
		}
		results[i] = r
	}
	return results, errors.Join(errs...)
}

// Match returns the anchor closest to v and its score without learning.
// ok is false when no anchor exists or v is invalid.
func (l *Learner) Match(v sparse.Vector) (anchor int, score float64, ok bool) {
	if validateInput(v) != nil {
		return 0, 0, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	best, score := l.bestMatch(v)
	if best < 0 {
		return 0, 0, false
	}
	return best, score, true
}

// bestMatch scores the anchors sharing a coordinate with v. Anchors outside
// the candidate set score 0, so when nothing matches anchor 0 is returned
// with score 0. Ties go to the lower anchor index. Callers hold l.mu.
func (l *Learner) bestMatch(v sparse.Vector) (int, float64) {
	if len(l.anchors) == 0 {
		return -1, 0
	}

	postings := make([]*roaring.Bitmap, 0, len(v))
	for coord := range v {
		if bm, ok := l.index[coord]; ok {
			postings = append(postings, bm)
		}
	}

	best, bestScore := 0, 0.0
	if len(postings) == 0 {
		return best, bestScore
	}

	it := roaring.FastOr(postings...).Iterator()
	for it.HasNext() {
		id := int(it.Next())
		if s := closeness(v, l.anchors[id].vec, l.opts.tolerance); s > bestScore {
			best, bestScore = id, s
		}
	}
	return best, bestScore
}

// closeness counts shared coordinates whose values lie within tolerance on
// the Z16384 circle, divided by the larger support size.
func closeness(v, anchor sparse.Vector, tolerance uint16) float64 {
	denom := max(len(v), len(anchor))
	if denom == 0 {
		return 0
	}
	small, large := v, anchor
	if len(large) < len(small) {
		small, large = large, small
	}
	matched := 0
	for coord, x := range small {
		y, ok := large[coord]
		if !ok {
			continue
		}
		if circularDistance(x, y) <= tolerance {
			matched++
		}
	}
	return float64(matched) / float64(denom)
}

func circularDistance(a, b uint16) uint16 {
	d := a - b
	if b > a {
		d = b - a
	}
	return min(d, sparse.Modulus-d)
}

func (l *Learner) create(v sparse.Vector) int {
	st := &anchorState{
		vec:    v.Clone(),
		counts: make(map[uint32]uint32, len(v)),
	}
	for coord := range v {
		st.counts[coord] = 1
	}
	compress(st, l.opts.maxDimensions, l.opts.strategy)

	id := len(l.anchors)
	l.anchors = append(l.anchors, st)
	for coord := range st.vec {
		l.indexAdd(coord, id)
	}
	l.created++
	return id
}

func (l *Learner) reinforce(id int, v sparse.Vector) {
	st := l.anchors[id]
	before := st.vec

	st.vec = sparse.Add(before, v)
	for coord := range v {
		st.counts[coord]++
	}
	compress(st, l.opts.maxDimensions, l.opts.strategy)

	for coord := range before {
		if _, ok := st.vec[coord]; !ok {
			l.indexRemove(coord, id)
		}
	}
	for coord := range st.vec {
		if _, ok := before[coord]; !ok {
			l.indexAdd(coord, id)
		}
	}
	l.reinforcements++
}

func (l *Learner) indexAdd(coord uint32, id int) {
	bm, ok := l.index[coord]
	if !ok {
		bm = roaring.New()
		l.index[coord] = bm
	}
	bm.Add(uint32(id))
}

func (l *Learner) indexRemove(coord uint32, id int) {
	bm, ok := l.index[coord]
	if !ok {
		return
	}
	bm.Remove(uint32(id))
	if bm.IsEmpty() {
		delete(l.index, coord)
	}
}

type entry struct {
	coord uint32
	value uint16
	count uint32
}

// compress trims st to the top k coordinates under strategy and drops the
// counters of discarded coordinates.
func compress(st *anchorState, k int, strategy Strategy) {
	for coord := range st.counts {
		if _, ok := st.vec[coord]; !ok {
			delete(st.counts, coord)
		}
	}
	if len(st.vec) <= k {
		return
	}

	entries := make([]entry, 0, len(st.vec))
	for coord, value := range st.vec {
		entries = append(entries, entry{coord: coord, value: value, count: st.counts[coord]})
	}

	switch strategy {
	case ByFrequency:
		slices.SortFunc(entries, func(a, b entry) int {
			if c := cmp.Compare(b.count, a.count); c != 0 {
				return c
			}
			if c := cmp.Compare(b.value, a.value); c != 0 {
				return c
			}
			return cmp.Compare(a.coord, b.coord)
		})
	default:
		slices.SortFunc(entries, func(a, b entry) int {
			if c := cmp.Compare(b.value, a.value); c != 0 {
				return c
			}
			return cmp.Compare(a.coord, b.coord)
		})
	}

	vec := make(sparse.Vector, k)
	counts := make(map[uint32]uint32, k)
	for _, e := range entries[:k] {
		vec[e.coord] = e.value
		if e.count > 0 {
			counts[e.coord] = e.count
		}
	}
	st.vec, st.counts = vec, counts
}

// Len returns the number of anchors.
func (l *Learner) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.anchors)
}

// Anchor returns a copy of anchor id.
func (l *Learner) Anchor(id int) (sparse.Vector, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id < 0 || id >= len(l.anchors) {
		return nil, false
	}
	return l.anchors[id].vec.Clone(), true
}

// Anchors returns deep copies of all anchors in creation order.
func (l *Learner) Anchors() []sparse.Vector {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]sparse.Vector, len(l.anchors))
	for i, st := range l.anchors {
		out[i] = st.vec.Clone()
	}
	return out
}
