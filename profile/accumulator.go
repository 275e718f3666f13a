package profile

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/x448/float16"

	"github.com/hupe1980/hypervec/codebook"
	"github.com/hupe1980/hypervec/hdc"
)

// Codebooks supplies the symbol vectors. A nil field is replaced with an
// unbounded codebook.
type Codebooks struct {
	Bipolar *codebook.Codebook[hdc.Vector]
	Z32     *codebook.Codebook[hdc.Cyclic]
	Z512    *codebook.Codebook[hdc.Cyclic]
}

func (c *Codebooks) fill() {
	if c.Bipolar == nil {
		c.Bipolar = codebook.NewBipolar()
	}
	if c.Z32 == nil {
		c.Z32, _ = codebook.NewCyclic(hdc.Z32)
	}
	if c.Z512 == nil {
		c.Z512, _ = codebook.NewCyclic(hdc.Z512)
	}
}

// Accumulator holds the profiles of one subject. It is safe for concurrent
// use; mutations are serialized.
type Accumulator struct {
	mu       sync.RWMutex
	opts     options
	books    Codebooks
	profiles map[int]hdc.Vector
	events   uint64
}

// New creates an Accumulator with all-zero profiles.
func New(books Codebooks, optFns ...Option) (*Accumulator, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	books.fill()

	a := &Accumulator{
		opts:     opts,
		books:    books,
		profiles: make(map[int]hdc.Vector, len(opts.dimensions)),
	}
	for _, d := range opts.dimensions {
		a.profiles[d] = hdc.New(d)
	}
	return a, nil
}

// Dimensions returns the maintained profile sizes in configuration order.
func (a *Accumulator) Dimensions() []int {
	return slices.Clone(a.opts.dimensions)
}

// Interactions returns the number of events folded into the profiles.
func (a *Accumulator) Interactions() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.events
}

func (a *Accumulator) factBook() *codebook.Codebook[hdc.Cyclic] {
	if a.opts.factModulus == hdc.Z32 {
		return a.books.Z32
	}
	return a.books.Z512
}

// AddInteraction binds kind with item and bundles the result into every
// maintained profile.
func (a *Accumulator) AddInteraction(kind, item string) error {
	// Resolve outside the lock; codebook lookups may generate vectors.
	contextual := make(map[int]hdc.Vector, len(a.opts.dimensions))
	for _, d := range a.opts.dimensions {
		v, err := hdc.Bind(a.books.Bipolar.Get(kind, d), a.books.Bipolar.Get(item, d))
		if err != nil {
			return err
		}
		contextual[d] = v
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for d, v := range contextual {
		if err := hdc.BundleInto(a.profiles[d], v); err != nil {
			return err
		}
	}
	a.events++
	return nil
}

// Fact builds the role-filler vector for roles at dims. Roles are ordered
// lexicographically; the filler at position i is permuted by i and all
// fillers are bound together in the fact group.
func (a *Accumulator) Fact(roles map[string]string, dims int) (hdc.Cyclic, error) {
	if len(roles) == 0 {
		return hdc.Cyclic{}, ErrEmptyFact
	}
	names := make([]string, 0, len(roles))
	for r := range roles {
		names = append(names, r)
	}
	slices.Sort(names)

	book := a.factBook()
	var fact hdc.Cyclic
	for i, r := range names {
		filler := book.Get(roles[r], dims).Permute(i)
		if i == 0 {
			fact = filler
			continue
		}
		var err error
		if fact, err = hdc.BindCyclic(fact, filler); err != nil {
			return hdc.Cyclic{}, err
		}
	}
	return fact, nil
}

// AddStructuredFact bundles the fact vector for roles into the profile of
// size dims.
func (a *Accumulator) AddStructuredFact(roles map[string]string, dims int) error {
	if _, ok := a.profiles[dims]; !ok {
		return &ErrUnknownDimension{Dimension: dims}
	}
	fact, err := a.Fact(roles, dims)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := hdc.BundleInto(a.profiles[dims], fact.Float()); err != nil {
		return err
	}
	a.events++
	return nil
}

// AddRealVector bundles an externally computed vector into the profile
// whose dimension equals len(v).
func (a *Accumulator) AddRealVector(v hdc.Vector) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.profiles[len(v)]
	if !ok {
		return &hdc.ErrDimensionMismatch{Expected: a.opts.dimensions[0], Actual: len(v)}
	}
	if err := hdc.BundleInto(p, v); err != nil {
		return err
	}
	a.events++
	return nil
}

// Vector returns a copy of the profile of size dims.
func (a *Accumulator) Vector(dims int) (hdc.Vector, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.profiles[dims]
	if !ok {
		return nil, &ErrUnknownDimension{Dimension: dims}
	}
	return p.Clone(), nil
}

func (a *Accumulator) normalized(dims int) (hdc.Vector, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.profiles[dims]
	if !ok {
		return nil, &ErrUnknownDimension{Dimension: dims}
	}
	return hdc.Normalize(p), nil
}

// ExportQuantized returns the normalized profile as fixed-point integers:
// each component is scaled, rounded half away from zero and clamped to the
// int16 range. The result has exactly dims elements.
func (a *Accumulator) ExportQuantized(dims int) ([]int16, error) {
	n, err := a.normalized(dims)
	if err != nil {
		return nil, err
	}
	out := make([]int16, len(n))
	for i, x := range n {
		q := math.Round(float64(x) * a.opts.quantizeScale)
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, q)))
	}
	return out, nil
}

// EncodeQuantized returns ExportQuantized as little-endian bytes.
func (a *Accumulator) EncodeQuantized(dims int) ([]byte, error) {
	q, err := a.ExportQuantized(dims)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 2*len(q))
	for i, x := range q {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(x))
	}
	return buf, nil
}

// ExportHalf returns the normalized profile as IEEE 754 half-precision bit
// patterns.
func (a *Accumulator) ExportHalf(dims int) ([]uint16, error) {
	n, err := a.normalized(dims)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, len(n))
	for i, x := range n {
		out[i] = float16.Fromfloat32(x).Bits()
	}
	return out, nil
}

// Sync replaces all maintained profiles in one step. profiles must be given
// in Dimensions order with matching lengths; nothing changes on error.
func (a *Accumulator) Sync(profiles ...hdc.Vector) error {
	if len(profiles) != len(a.opts.dimensions) {
		return fmt.Errorf("profile: sync expects %d profiles, got %d", len(a.opts.dimensions), len(profiles))
	}
	next := make(map[int]hdc.Vector, len(profiles))
	for i, d := range a.opts.dimensions {
		if len(profiles[i]) != d {
			return &hdc.ErrDimensionMismatch{Expected: d, Actual: len(profiles[i])}
		}
		next[d] = profiles[i].Clone()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.profiles = next
	return nil
}

// Reset zeroes every profile and the event counter.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for d := range a.profiles {
		a.profiles[d] = hdc.New(d)
	}
	a.events = 0
}
