package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Submit after Run has returned.
var ErrClosed = errors.New("pipeline: batcher closed")

// Handler processes one flushed batch. A started call always runs to
// completion: it receives a context that is not cancelled with Run's.
type Handler[T any] func(ctx context.Context, batch []T) error

const (
	// DefaultMaxBatch is the default size threshold.
	DefaultMaxBatch = 256
	// DefaultIdle is the default idle interval before a flush.
	DefaultIdle = 500 * time.Millisecond
)

type batchOptions struct {
	maxBatch int
	idle     time.Duration
	buffer   int
	logger   *slog.Logger
}

// BatchOption configures a Batcher.
type BatchOption func(*batchOptions)

// WithMaxBatch flushes as soon as n distinct events are pending.
func WithMaxBatch(n int) BatchOption {
	return func(o *batchOptions) {
		o.maxBatch = n
	}
}

// WithIdle flushes once no event arrived for d.
func WithIdle(d time.Duration) BatchOption {
	return func(o *batchOptions) {
		o.idle = d
	}
}

// WithBuffer sets the capacity of the submit channel. Submit blocks while
// it is full.
func WithBuffer(n int) BatchOption {
	return func(o *batchOptions) {
		o.buffer = n
	}
}

// WithBatchLogger sets the logger used for handler failures.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(o *batchOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// BatchStats counts batcher activity.
type BatchStats struct {
	Submitted uint64
	Merged    uint64 // events replaced by a later event with the same key
	Flushes   uint64
	Failures  uint64
}

// Batcher debounces a stream of events into batches.
type Batcher[T any] struct {
	opts    batchOptions
	handler Handler[T]
	key     func(T) string

	in      chan T
	done    chan struct{}
	started atomic.Bool

	submitted atomic.Uint64
	merged    atomic.Uint64
	flushes   atomic.Uint64
	failures  atomic.Uint64
}

// NewBatcher creates a Batcher that delivers batches to handler.
func NewBatcher[T any](handler Handler[T], optFns ...BatchOption) (*Batcher[T], error) {
	if handler == nil {
		return nil, errors.New("pipeline: nil handler")
	}
	opts := batchOptions{
		maxBatch: DefaultMaxBatch,
		idle:     DefaultIdle,
		buffer:   DefaultMaxBatch,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.maxBatch <= 0 {
		return nil, fmt.Errorf("pipeline: max batch must be positive, got %d", opts.maxBatch)
	}
	if opts.idle <= 0 {
		return nil, fmt.Errorf("pipeline: idle interval must be positive, got %v", opts.idle)
	}
	if opts.buffer < 0 {
		return nil, fmt.Errorf("pipeline: buffer must not be negative, got %d", opts.buffer)
	}
	return &Batcher[T]{
		opts:    opts,
		handler: handler,
		in:      make(chan T, opts.buffer),
		done:    make(chan struct{}),
	}, nil
}

// WithKey enables merging: pending events with the same non-empty key are
// replaced by the latest one, keeping the position of the first. It must
// be called before Run.
func (b *Batcher[T]) WithKey(fn func(T) string) *Batcher[T] {
	b.key = fn
	return b
}

// Submit enqueues ev. It blocks while the buffer is full.
func (b *Batcher[T]) Submit(ctx context.Context, ev T) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	select {
	case b.in <- ev:
		b.submitted.Add(1)
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run has returned.
func (b *Batcher[T]) Done() <-chan struct{} { return b.done }

// Stats returns activity counters.
func (b *Batcher[T]) Stats() BatchStats {
	return BatchStats{
		Submitted: b.submitted.Load(),
		Merged:    b.merged.Load(),
		Flushes:   b.flushes.Load(),
		Failures:  b.failures.Load(),
	}
}

type pending[T any] struct {
	events []T
	index  map[string]int
}

func (p *pending[T]) add(ev T, key string) (merged bool) {
	if key != "" {
		if i, ok := p.index[key]; ok {
			p.events[i] = ev
			return true
		}
		p.index[key] = len(p.events)
	}
	p.events = append(p.events, ev)
	return false
}

func (p *pending[T]) take() []T {
	batch := p.events
	p.events = nil
	clear(p.index)
	return batch
}

// Run consumes submitted events until ctx is cancelled. On cancellation
// the events already submitted are flushed before Run returns. Run may be
// called once.
func (b *Batcher[T]) Run(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return errors.New("pipeline: batcher already running")
	}
	defer close(b.done)

	flushCtx := context.WithoutCancel(ctx)
	p := &pending[T]{index: make(map[string]int)}

	timer := time.NewTimer(b.opts.idle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			b.drain(flushCtx, p)
			return nil

		case ev := <-b.in:
			b.enqueue(p, ev)
			if len(p.events) >= b.opts.maxBatch {
				timer.Stop()
				b.flush(flushCtx, p.take())
				continue
			}
			timer.Reset(b.opts.idle)

		case <-timer.C:
			b.flush(flushCtx, p.take())
		}
	}
}

// drain flushes everything still buffered. Events submitted concurrently
// with shutdown may be dropped.
func (b *Batcher[T]) drain(ctx context.Context, p *pending[T]) {
	for {
		select {
		case ev := <-b.in:
			b.enqueue(p, ev)
			if len(p.events) >= b.opts.maxBatch {
				b.flush(ctx, p.take())
			}
		default:
			b.flush(ctx, p.take())
			return
		}
	}
}

func (b *Batcher[T]) enqueue(p *pending[T], ev T) {
	key := ""
	if b.key != nil {
		key = b.key(ev)
	}
	if p.add(ev, key) {
		b.merged.Add(1)
	}
}

func (b *Batcher[T]) flush(ctx context.Context, batch []T) {
	if len(batch) == 0 {
		return
	}
	b.flushes.Add(1)
	if err := b.handler(ctx, batch); err != nil {
		b.failures.Add(1)
		b.opts.logger.Error("batch handler failed", "events", len(batch), "error", err)
	}
}
