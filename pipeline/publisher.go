package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled is returned by Publisher.Publish when the rate limit is
// exceeded. The snapshot is skipped; the next one carries newer state.
var ErrThrottled = errors.New("pipeline: publish throttled")

// Publisher rate-limits snapshots sent to a Sink.
type Publisher struct {
	sink    Sink
	limiter *rate.Limiter
	now     func() time.Time

	published atomic.Uint64
	throttled atomic.Uint64
}

// NewPublisher allows up to limit snapshots per second with the given
// burst. rate.Inf disables limiting.
func NewPublisher(sink Sink, limit rate.Limit, burst int) *Publisher {
	return &Publisher{
		sink:    sink,
		limiter: rate.NewLimiter(limit, max(burst, 1)),
		now:     time.Now,
	}
}

// Publish sends payload stamped with the current time, or returns
// ErrThrottled without contacting the sink.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	now := p.now()
	if !p.limiter.AllowN(now, 1) {
		p.throttled.Add(1)
		return ErrThrottled
	}
	if err := p.sink.Publish(ctx, now, payload); err != nil {
		return err
	}
	p.published.Add(1)
	return nil
}

// Published returns the number of snapshots delivered to the sink.
func (p *Publisher) Published() uint64 { return p.published.Load() }

// Throttled returns the number of skipped snapshots.
func (p *Publisher) Throttled() uint64 { return p.throttled.Load() }
