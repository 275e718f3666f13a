// Package codebook maps symbolic keys to deterministic hypervectors.
//
// A Codebook memoizes the result of a generator for each (key, dimension)
// pair. The cache is an optimization only: every entry can be regenerated
// from its key, so bounding it with WithCapacity never changes results.
//
//	words := codebook.NewBipolar()
//	v := words.Get("click", 10000)
package codebook

import (
	"sync"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"

	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/internal/cache"
)

// Generator produces the vector for key at the given dimension.
// It must be deterministic.
type Generator[V any] func(dims int, key string) V

type entryKey struct {
	key  string
	dims int
}

// Stats is a point-in-time snapshot of codebook counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

type options struct {
	capacity  int
	normalize bool
}

func defaultOptions() options {
	return options{normalize: true}
}

// Option configures a Codebook.
type Option func(*options)

// WithCapacity bounds the cache to n entries with LRU eviction.
// n <= 0 keeps the cache unbounded (the default).
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithoutNormalization disables Unicode NFC normalization of keys.
func WithoutNormalization() Option {
	return func(o *options) { o.normalize = false }
}

// Codebook is a memoized key → vector mapping. It is safe for concurrent use.
// Returned vectors are shared between callers and must be treated as read-only.
type Codebook[V any] struct {
	generate  Generator[V]
	normalize bool

	// exactly one of table / lru is set
	mu    sync.RWMutex
	table map[entryKey]V
	lru   *cache.LRU[entryKey, V]

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Codebook backed by generate.
func New[V any](generate Generator[V], opts ...Option) *Codebook[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Codebook[V]{generate: generate, normalize: o.normalize}
	if o.capacity > 0 {
		c.lru = cache.NewLRU[entryKey, V](o.capacity)
	} else {
		c.table = make(map[entryKey]V)
	}
	return c
}

// NewBipolar returns a codebook of bipolar vectors.
func NewBipolar(opts ...Option) *Codebook[hdc.Vector] {
	return New(hdc.Generate, opts...)
}

// NewCyclic returns a codebook of vectors over Zm.
func NewCyclic(m hdc.Modulus, opts ...Option) (*Codebook[hdc.Cyclic], error) {
	if !m.Valid() {
		return nil, hdc.ErrInvalidModulus
	}
	return New(m.Generate, opts...), nil
}

// Get returns the vector for key at dims, generating and caching it on
// first use.
func (c *Codebook[V]) Get(key string, dims int) V {
	if c.normalize {
		key = norm.NFC.String(key)
	}
	k := entryKey{key: key, dims: dims}

	if c.lru != nil {
		return c.lru.GetOrAdd(k, func() V { return c.generate(dims, key) })
	}

	c.mu.RLock()
	v, ok := c.table[k]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok = c.table[k]; ok {
		c.hits.Add(1)
		return v
	}
	c.misses.Add(1)
	v = c.generate(dims, key)
	c.table[k] = v
	return v
}

// Len returns the number of cached entries.
func (c *Codebook[V]) Len() int {
	if c.lru != nil {
		return c.lru.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// Stats returns cache counters.
func (c *Codebook[V]) Stats() Stats {
	if c.lru != nil {
		hits, misses, evictions := c.lru.Stats()
		return Stats{Entries: c.lru.Len(), Hits: hits, Misses: misses, Evictions: evictions}
	}
	return Stats{Entries: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
