package ann

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/hypervec/distance"
	"github.com/hupe1980/hypervec/hdc"
)

var (
	// ErrInvalidK is returned by Query for k <= 0.
	ErrInvalidK = errors.New("ann: k must be positive")
	// ErrMissingVector is returned when a DataPoint carries no vector.
	ErrMissingVector = errors.New("ann: data point has no vector")
)

// DataPoint is a dense vector with an opaque caller payload.
type DataPoint struct {
	Vector  hdc.Vector
	Payload any
}

// Result is a query hit.
type Result struct {
	ID       uint32
	Distance float32 // Euclidean
	Point    DataPoint
}

// Forest is a set of random-projection trees over the same point set.
// Queries run concurrently; writes are serialized.
type Forest struct {
	mu     sync.RWMutex
	dims   int
	opts   options
	points []DataPoint // indexed by id; evicted slots have a nil Vector
	live   int
	trees  []*tree
}

// New creates an empty forest for vectors of length dims.
func New(dims int, optFns ...Option) (*Forest, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("ann: dimension must be positive, got %d", dims)
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	f := &Forest{dims: dims, opts: opts}
	f.resetTrees()
	return f, nil
}

func (f *Forest) resetTrees() {
	f.trees = make([]*tree, f.opts.forestSize)
	for i := range f.trees {
		f.trees[i] = newTree(f.opts.seed + int64(i)*7919)
	}
}

// Dimensions returns the vector length accepted by the forest.
func (f *Forest) Dimensions() int { return f.dims }

func (f *Forest) check(v hdc.Vector) error {
	if v == nil {
		return ErrMissingVector
	}
	if len(v) != f.dims {
		return &hdc.ErrDimensionMismatch{Expected: f.dims, Actual: len(v)}
	}
	return nil
}

// Add inserts p into every tree and returns its id. The vector is copied.
func (f *Forest) Add(p DataPoint) (uint32, error) {
	if err := f.check(p.Vector); err != nil {
		return 0, err
	}
	p.Vector = p.Vector.Clone()

	f.mu.Lock()
	defer f.mu.Unlock()

	id := uint32(len(f.points))
	f.points = append(f.points, p)
	f.live++
	for _, t := range f.trees {
		t.insert(id, f.points, f.opts.maxLeafSize)
	}
	return id, nil
}

// Build appends points and reconstructs every tree from all live points,
// one goroutine per tree. All points are validated before any is added.
func (f *Forest) Build(ctx context.Context, points []DataPoint) ([]uint32, error) {
	for i, p := range points {
		if err := f.check(p.Vector); err != nil {
			return nil, fmt.Errorf("ann: point %d: %w", i, err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	base := len(f.points)
	ids := make([]uint32, len(points))
	for i, p := range points {
		p.Vector = p.Vector.Clone()
		ids[i] = uint32(len(f.points))
		f.points = append(f.points, p)
	}
	if err := f.rebuildLocked(ctx); err != nil {
		f.points = f.points[:base]
		return nil, err
	}
	f.live += len(points)
	return ids, nil
}

// rebuildLocked reconstructs all trees from live points. On error the
// previous trees are kept. Callers hold f.mu.
func (f *Forest) rebuildLocked(ctx context.Context) error {
	liveIDs := make([]uint32, 0, f.live)
	for id, p := range f.points {
		if p.Vector != nil {
			liveIDs = append(liveIDs, uint32(id))
		}
	}

	trees := make([]*tree, f.opts.forestSize)
	g, ctx := errgroup.WithContext(ctx)
	for i := range trees {
		g.Go(func() error {
			t := newTree(f.opts.seed + int64(i)*7919)
			t.root.ids = slices.Clone(liveIDs)
			if len(liveIDs) > f.opts.maxLeafSize {
				t.split(t.root, f.points, f.opts.maxLeafSize)
			}
			trees[i] = t
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	f.trees = trees
	return nil
}

// Rebuild evicts every point for which keep returns false and reconstructs
// the trees from the rest. Ids of retained points are unchanged. It returns
// the number of evicted points.
func (f *Forest) Rebuild(ctx context.Context, keep func(id uint32, p DataPoint) bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var evicted []uint32
	for id, p := range f.points {
		if p.Vector != nil && keep != nil && !keep(uint32(id), p) {
			evicted = append(evicted, uint32(id))
		}
	}
	// A failed rebuild puts the evicted points back.
	saved := make([]DataPoint, len(evicted))
	for i, id := range evicted {
		saved[i] = f.points[id]
		f.points[id] = DataPoint{}
	}
	if err := f.rebuildLocked(ctx); err != nil {
		for i, id := range evicted {
			f.points[id] = saved[i]
		}
		return 0, err
	}
	f.live -= len(evicted)
	return len(evicted), nil
}

// Query returns up to k approximate nearest neighbors of v ordered by
// ascending Euclidean distance. When the candidate set holds k points or
// fewer, all candidates are returned.
func (f *Forest) Query(v hdc.Vector, k int) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if err := f.check(v); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	candidates := roaring.New()
	for _, t := range f.trees {
		candidates.AddMany(t.leaf(v).ids)
	}

	results := make([]Result, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		id := it.Next()
		p := f.points[id]
		results = append(results, Result{
			ID:       id,
			Distance: float32(math.Sqrt(float64(distance.SquaredL2(v, p.Vector)))),
			Point:    p,
		})
	}
	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Get returns the point stored under id.
func (f *Forest) Get(id uint32) (DataPoint, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if int(id) >= len(f.points) || f.points[id].Vector == nil {
		return DataPoint{}, false
	}
	return f.points[id], true
}

// Len returns the number of live points.
func (f *Forest) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.live
}

// Stats describes the forest shape.
type Stats struct {
	Points   int
	Trees    int
	Leaves   int
	MaxDepth int
}

// Stats returns the current forest shape.
func (f *Forest) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s := Stats{Points: f.live, Trees: len(f.trees)}
	for _, t := range f.trees {
		ts := t.stats()
		s.Leaves += ts.leaves
		s.MaxDepth = max(s.MaxDepth, ts.maxDepth)
	}
	return s
}
