package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/hypervec/anchor"
	"github.com/hupe1980/hypervec/codec"
	"github.com/hupe1980/hypervec/kv"
	"github.com/hupe1980/hypervec/sparse"
)

// DefaultThreshold is the closeness score at or above which a vector
// reinforces an existing anchor.
const DefaultThreshold = 0.5

// Update is the snapshot published after every pass.
type Update struct {
	At         time.Time       `json:"at"`
	Events     int             `json:"events"`
	Created    int             `json:"created"`
	Reinforced int             `json:"reinforced"`
	Anchors    anchor.Snapshot `json:"anchors"`
}

// Report summarizes one clustering pass.
type Report struct {
	Events     int
	Created    int
	Reinforced int
	Rejected   int
	Published  bool
	Duration   time.Duration
	Err        error
}

// ClusterOption configures a Clusterer.
type ClusterOption func(*Clusterer)

// WithThreshold sets the learn threshold.
func WithThreshold(t float64) ClusterOption {
	return func(c *Clusterer) { c.threshold = t }
}

// WithStore persists the anchors after every pass.
func WithStore(s kv.Store) ClusterOption {
	return func(c *Clusterer) { c.store = s }
}

// WithPublisher publishes an Update after every pass.
func WithPublisher(p *Publisher) ClusterOption {
	return func(c *Clusterer) { c.publisher = p }
}

// WithCodec sets the codec used for published updates.
func WithCodec(cd codec.Codec) ClusterOption {
	return func(c *Clusterer) { c.codec = cd }
}

// WithClusterLogger sets the logger.
func WithClusterLogger(l *slog.Logger) ClusterOption {
	return func(c *Clusterer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReportHook registers fn to observe every pass.
func WithReportHook(fn func(Report)) ClusterOption {
	return func(c *Clusterer) { c.hook = fn }
}

// Clusterer learns batches of sparse vectors into an anchor.Learner.
type Clusterer struct {
	learner   *anchor.Learner
	threshold float64
	store     kv.Store
	publisher *Publisher
	codec     codec.Codec
	logger    *slog.Logger
	hook      func(Report)
}

// NewClusterer creates a Clusterer for learner.
func NewClusterer(learner *anchor.Learner, opts ...ClusterOption) *Clusterer {
	c := &Clusterer{
		learner:   learner,
		threshold: DefaultThreshold,
		codec:     codec.Default,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// Handle is a Handler for a Batcher of sparse vectors. Invalid vectors are
// skipped; persistence and publish failures are returned after the whole
// pass has run. A throttled publish is not an error.
func (c *Clusterer) Handle(ctx context.Context, batch []sparse.Vector) error {
	start := time.Now()
	report := Report{Events: len(batch)}

	results, learnErr := c.learner.LearnBatch(batch, c.threshold)
	for _, r := range results {
		switch r.Action {
		case anchor.Created:
			report.Created++
		case anchor.Reinforced:
			report.Reinforced++
		default:
			report.Rejected++
		}
	}
	if learnErr != nil {
		c.logger.Debug("skipped invalid vectors", "rejected", report.Rejected, "error", learnErr)
	}

	var errs []error
	if c.store != nil {
		if err := c.learner.Save(ctx, c.store); err != nil {
			errs = append(errs, err)
		}
	}
	if c.publisher != nil && report.Created+report.Reinforced > 0 {
		published, err := c.publish(ctx, start, report)
		if err != nil {
			errs = append(errs, err)
		}
		report.Published = published
	}

	report.Duration = time.Since(start)
	report.Err = errors.Join(errs...)
	c.logger.Debug("clustering pass",
		"events", report.Events,
		"created", report.Created,
		"reinforced", report.Reinforced,
		"published", report.Published,
		"duration", report.Duration,
	)
	if c.hook != nil {
		c.hook(report)
	}
	return report.Err
}

func (c *Clusterer) publish(ctx context.Context, at time.Time, r Report) (bool, error) {
	payload, err := codec.Encode(c.codec, Update{
		At:         at.UTC(),
		Events:     r.Events,
		Created:    r.Created,
		Reinforced: r.Reinforced,
		Anchors:    c.learner.Snapshot(),
	})
	if err != nil {
		return false, err
	}
	switch err := c.publisher.Publish(ctx, payload); {
	case errors.Is(err, ErrThrottled):
		c.logger.Debug("snapshot throttled")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("pipeline: publish: %w", err)
	}
	return true, nil
}
