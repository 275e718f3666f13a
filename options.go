package hypervec

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/hypervec/anchor"
	"github.com/hupe1980/hypervec/ann"
	"github.com/hupe1980/hypervec/codec"
	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/kv"
	"github.com/hupe1980/hypervec/pipeline"
	"github.com/hupe1980/hypervec/profile"
)

const (
	// DefaultPublishRate is the default number of snapshots published per second.
	DefaultPublishRate rate.Limit = 1
	// DefaultPublishBurst is the default publisher burst.
	DefaultPublishBurst = 1
)

type options struct {
	dimensions       []int
	factModulus      hdc.Modulus
	codebookCapacity int
	store            kv.Store
	logger           *Logger
	metricsCollector MetricsCollector
	anchorOptions    []anchor.Option
	forestOptions    []ann.Option
	forestDimension  int
	sink             pipeline.Sink
	maxBatch         int
	idle             time.Duration
	learnThreshold   float64
	publishLimit     rate.Limit
	publishBurst     int
	codec            codec.Codec
}

func defaultOptions() options {
	return options{
		dimensions:       append([]int(nil), profile.DefaultDimensions...),
		factModulus:      hdc.Z512,
		metricsCollector: NoopMetricsCollector{},
		maxBatch:         pipeline.DefaultMaxBatch,
		idle:             pipeline.DefaultIdle,
		learnThreshold:   pipeline.DefaultThreshold,
		publishLimit:     DefaultPublishRate,
		publishBurst:     DefaultPublishBurst,
		codec:            codec.Default,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithDimensions sets the profile sizes. Order is significant for Sync.
func WithDimensions(dims ...int) Option {
	return func(o *options) {
		o.dimensions = append([]int(nil), dims...)
	}
}

// WithFactModulus selects the cyclic group structured facts are bound in.
func WithFactModulus(m hdc.Modulus) Option {
	return func(o *options) {
		o.factModulus = m
	}
}

// WithCodebookCapacity bounds every codebook to n entries. Entries are
// regenerated on demand, so this trades CPU for memory.
func WithCodebookCapacity(n int) Option {
	return func(o *options) {
		o.codebookCapacity = n
	}
}

// WithStore configures where Persist and Restore read and write state.
// Defaults to an in-memory store.
func WithStore(s kv.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLogger sets the logger. Defaults to NoopLogger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics sink. Defaults to a no-op collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

// WithAnchorOptions forwards options to the anchor learner.
func WithAnchorOptions(opts ...anchor.Option) Option {
	return func(o *options) {
		o.anchorOptions = append(o.anchorOptions, opts...)
	}
}

// WithForestOptions forwards options to the nearest neighbor forest.
func WithForestOptions(opts ...ann.Option) Option {
	return func(o *options) {
		o.forestOptions = append(o.forestOptions, opts...)
	}
}

// WithForestDimension sets the dimension of indexed vectors. Defaults to
// the first profile dimension so profiles can be used as queries.
func WithForestDimension(dims int) Option {
	return func(o *options) {
		o.forestDimension = dims
	}
}

// WithSink publishes a snapshot of the anchors after every clustering pass.
func WithSink(s pipeline.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithBatching configures the debounce of observed sparse vectors: a pass
// runs after size distinct observations or after idle without input.
func WithBatching(size int, idle time.Duration) Option {
	return func(o *options) {
		o.maxBatch = size
		o.idle = idle
	}
}

// WithLearnThreshold sets the closeness at or above which an observation
// reinforces an anchor.
func WithLearnThreshold(t float64) Option {
	return func(o *options) {
		o.learnThreshold = t
	}
}

// WithPublishRate bounds how often snapshots are sent to the sink.
func WithPublishRate(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.publishLimit = limit
		o.publishBurst = burst
	}
}

// WithCodec sets the codec for published snapshots.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}
