package hypervec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/hypervec/anchor"
	"github.com/hupe1980/hypervec/ann"
	"github.com/hupe1980/hypervec/codebook"
	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/kv"
	"github.com/hupe1980/hypervec/pipeline"
	"github.com/hupe1980/hypervec/profile"
	"github.com/hupe1980/hypervec/sparse"
)

// Observation is a sparse vector submitted to the background clusterer.
// Pending observations with the same non-empty Key are merged; the latest
// one wins.
type Observation struct {
	Key    string
	Vector sparse.Vector
}

// Engine ties the profile accumulator, the anchor learner and the nearest
// neighbor forest of one subject together. It is safe for concurrent use.
type Engine struct {
	opts    options
	logger  *Logger
	metrics MetricsCollector
	store   kv.Store

	books     profile.Codebooks
	profile   *profile.Accumulator
	learner   *anchor.Learner
	forest    *ann.Forest
	publisher *pipeline.Publisher
	batcher   *pipeline.Batcher[Observation]

	mu      sync.Mutex
	cancel  context.CancelFunc
	runErr  chan error
	started bool
	closed  bool
}

// New creates an Engine.
func New(optFns ...Option) (*Engine, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = NoopLogger()
	}
	if opts.store == nil {
		opts.store = kv.NewMemoryStore()
	}

	e := &Engine{
		opts:    opts,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		store:   opts.store,
	}

	cbOpts := []codebook.Option{codebook.WithCapacity(opts.codebookCapacity)}
	e.books.Bipolar = codebook.NewBipolar(cbOpts...)
	var err error
	if e.books.Z32, err = codebook.NewCyclic(hdc.Z32, cbOpts...); err != nil {
		return nil, err
	}
	if e.books.Z512, err = codebook.NewCyclic(hdc.Z512, cbOpts...); err != nil {
		return nil, err
	}

	e.profile, err = profile.New(e.books,
		profile.WithDimensions(opts.dimensions...),
		profile.WithFactModulus(opts.factModulus),
	)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	anchorOpts := append([]anchor.Option{
		anchor.WithLogger(e.logger.WithComponent("anchor").Logger),
	}, opts.anchorOptions...)
	if e.learner, err = anchor.New(anchorOpts...); err != nil {
		return nil, err
	}

	forestDims := opts.forestDimension
	if forestDims == 0 {
		forestDims = opts.dimensions[0]
	}
	if e.forest, err = ann.New(forestDims, opts.forestOptions...); err != nil {
		return nil, err
	}

	clusterOpts := []pipeline.ClusterOption{
		pipeline.WithThreshold(opts.learnThreshold),
		pipeline.WithCodec(opts.codec),
		pipeline.WithClusterLogger(e.logger.WithComponent("pipeline").Logger),
		pipeline.WithReportHook(e.onReport),
	}
	if opts.sink != nil {
		e.publisher = pipeline.NewPublisher(opts.sink, opts.publishLimit, opts.publishBurst)
		clusterOpts = append(clusterOpts, pipeline.WithPublisher(e.publisher))
	}
	clusterer := pipeline.NewClusterer(e.learner, clusterOpts...)

	batcher, err := pipeline.NewBatcher(func(ctx context.Context, batch []Observation) error {
		vs := make([]sparse.Vector, len(batch))
		for i, o := range batch {
			vs[i] = o.Vector
		}
		return clusterer.Handle(ctx, vs)
	},
		pipeline.WithMaxBatch(opts.maxBatch),
		pipeline.WithIdle(opts.idle),
		pipeline.WithBatchLogger(e.logger.WithComponent("batcher").Logger),
	)
	if err != nil {
		return nil, err
	}
	e.batcher = batcher.WithKey(func(o Observation) string { return o.Key })

	return e, nil
}

func (e *Engine) onReport(r pipeline.Report) {
	ctx := context.Background()
	e.logger.LogLearn(ctx, r.Events, r.Created, r.Reinforced, r.Rejected, r.Err)
	e.metrics.RecordLearn(r.Created, r.Reinforced, r.Rejected, r.Duration)
	e.metrics.RecordFlush(r.Events, r.Published, r.Err)
}

// Dimensions returns the profile sizes in configuration order.
func (e *Engine) Dimensions() []int { return e.profile.Dimensions() }

func (e *Engine) record(ctx context.Context, kind string, start time.Time, err error) error {
	err = translateError(err)
	e.metrics.RecordInteraction(kind, time.Since(start), err)
	e.logger.LogInteraction(ctx, kind, err)
	return err
}

// Interaction folds a (kind, item) event into every profile.
func (e *Engine) Interaction(ctx context.Context, kind, item string) error {
	start := time.Now()
	if kind == "" || item == "" {
		return e.record(ctx, "interaction", start, fmt.Errorf("%w: empty kind or item", ErrInvalidInput))
	}
	return e.record(ctx, "interaction", start, e.profile.AddInteraction(kind, item))
}

// StructuredFact folds a role-filler fact into the profile of size dims.
func (e *Engine) StructuredFact(ctx context.Context, roles map[string]string, dims int) error {
	start := time.Now()
	return e.record(ctx, "fact", start, e.profile.AddStructuredFact(roles, dims))
}

// RawVector folds an externally computed vector into the profile whose
// size equals len(v).
func (e *Engine) RawVector(ctx context.Context, v []float32) error {
	start := time.Now()
	return e.record(ctx, "vector", start, e.profile.AddRealVector(hdc.Vector(v)))
}

// Profile returns a copy of the unnormalized profile of size dims.
func (e *Engine) Profile(dims int) (hdc.Vector, error) {
	v, err := e.profile.Vector(dims)
	return v, translateError(err)
}

// ExportQuantized returns the normalized profile of size dims as int16.
func (e *Engine) ExportQuantized(dims int) ([]int16, error) {
	q, err := e.profile.ExportQuantized(dims)
	return q, translateError(err)
}

// EncodeQuantized returns ExportQuantized as little-endian bytes.
func (e *Engine) EncodeQuantized(dims int) ([]byte, error) {
	b, err := e.profile.EncodeQuantized(dims)
	return b, translateError(err)
}

// ExportHalf returns the normalized profile of size dims as float16 bits.
func (e *Engine) ExportHalf(dims int) ([]uint16, error) {
	h, err := e.profile.ExportHalf(dims)
	return h, translateError(err)
}

// Sync replaces every profile, given in Dimensions order.
func (e *Engine) Sync(ctx context.Context, profiles ...hdc.Vector) error {
	start := time.Now()
	return e.record(ctx, "sync", start, e.profile.Sync(profiles...))
}

// Start runs the background clusterer until ctx is cancelled or Close is
// called. Observations submitted before Start are buffered.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return ErrClosed
	case e.started:
		return ErrAlreadyStarted
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	e.runErr = make(chan error, 1)
	go func() {
		e.runErr <- e.batcher.Run(ctx)
	}()
	return nil
}

// Observe submits v to the background clusterer. It blocks while the
// buffer is full.
func (e *Engine) Observe(ctx context.Context, key string, v sparse.Vector) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty sparse vector", ErrInvalidInput)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return translateError(e.batcher.Submit(ctx, Observation{Key: key, Vector: v.Clone()}))
}

// Learn runs one observation through the anchor learner synchronously.
func (e *Engine) Learn(v sparse.Vector) (anchor.Result, error) {
	r, err := e.learner.Learn(v, e.opts.learnThreshold)
	return r, translateError(err)
}

// Match returns the best anchor for v without learning.
func (e *Engine) Match(v sparse.Vector) (int, float64, bool) {
	return e.learner.Match(v)
}

// Anchors returns copies of the learned anchors.
func (e *Engine) Anchors() []sparse.Vector { return e.learner.Anchors() }

// Close drains pending observations and stops the clusterer. It is safe
// to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	started := e.started
	cancel := e.cancel
	e.mu.Unlock()

	if !started {
		return nil
	}
	cancel()
	return <-e.runErr
}

// Index adds p to the forest and rebuilds its trees.
func (e *Engine) Index(ctx context.Context, p ann.DataPoint) (uint32, error) {
	ids, err := e.IndexBatch(ctx, []ann.DataPoint{p})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// IndexBatch adds points to the forest and rebuilds its trees once.
func (e *Engine) IndexBatch(ctx context.Context, points []ann.DataPoint) ([]uint32, error) {
	ids, err := e.forest.Build(ctx, points)
	return ids, translateError(err)
}

// Similar returns up to k indexed points nearest to v.
func (e *Engine) Similar(ctx context.Context, v hdc.Vector, k int) ([]ann.Result, error) {
	start := time.Now()
	res, err := e.forest.Query(v, k)
	err = translateError(err)
	e.metrics.RecordQuery(k, time.Since(start), err)
	e.logger.LogQuery(ctx, k, len(res), err)
	return res, err
}

// Recommend queries the forest with the normalized profile of the forest
// dimension.
func (e *Engine) Recommend(ctx context.Context, k int) ([]ann.Result, error) {
	p, err := e.profile.Vector(e.forest.Dimensions())
	if err != nil {
		return nil, translateError(err)
	}
	return e.Similar(ctx, hdc.Normalize(p), k)
}

// Evict drops indexed points for which drop returns true and returns how
// many were removed. Remaining ids are unchanged.
func (e *Engine) Evict(ctx context.Context, drop func(id uint32, p ann.DataPoint) bool) (int, error) {
	n, err := e.forest.Rebuild(ctx, func(id uint32, p ann.DataPoint) bool { return !drop(id, p) })
	return n, translateError(err)
}

// Persist writes the profiles and anchors to the configured store.
func (e *Engine) Persist(ctx context.Context) error {
	start := time.Now()
	err := errors.Join(e.profile.Save(ctx, e.store), e.learner.Save(ctx, e.store))
	e.metrics.RecordPersist("persist", time.Since(start), err)
	e.logger.LogPersist(ctx, "persist", err)
	return err
}

// Restore loads the profiles and anchors from the configured store. Missing
// state leaves the current state in place.
func (e *Engine) Restore(ctx context.Context) error {
	start := time.Now()
	err := e.profile.Load(ctx, e.store)
	if err == nil {
		err = e.learner.Load(ctx, e.store)
	}
	e.metrics.RecordPersist("restore", time.Since(start), err)
	e.logger.LogPersist(ctx, "restore", err)
	return err
}

// Stats aggregates engine counters.
type Stats struct {
	Interactions uint64
	Bipolar      codebook.Stats
	Z32          codebook.Stats
	Z512         codebook.Stats
	Anchors      anchor.Stats
	Forest       ann.Stats
	Batches      pipeline.BatchStats
	Published    uint64
	Throttled    uint64
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Interactions: e.profile.Interactions(),
		Bipolar:      e.books.Bipolar.Stats(),
		Z32:          e.books.Z32.Stats(),
		Z512:         e.books.Z512.Stats(),
		Anchors:      e.learner.Stats(),
		Forest:       e.forest.Stats(),
		Batches:      e.batcher.Stats(),
	}
	if e.publisher != nil {
		s.Published = e.publisher.Published()
		s.Throttled = e.publisher.Throttled()
	}
	return s
}
