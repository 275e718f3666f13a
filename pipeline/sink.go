package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/hypervec/kv"
)

// Sink receives serialized cluster snapshots keyed by timestamp. It is the
// outbound half of cross-instance synchronization.
type Sink interface {
	Publish(ctx context.Context, at time.Time, payload []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, at time.Time, payload []byte) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, at time.Time, payload []byte) error {
	return f(ctx, at, payload)
}

// Message is one published snapshot.
type Message struct {
	At      time.Time
	Payload []byte
}

// ChannelSink delivers snapshots as messages on a channel.
type ChannelSink struct {
	ch chan Message
}

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Message, buffer)}
}

// C returns the message channel.
func (s *ChannelSink) C() <-chan Message { return s.ch }

// Publish blocks until the message is accepted or ctx is done.
func (s *ChannelSink) Publish(ctx context.Context, at time.Time, payload []byte) error {
	select {
	case s.ch <- Message{At: at, Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StoreSink writes each snapshot to a kv.Store under prefix + RFC 3339
// timestamp, so keys sort chronologically.
type StoreSink struct {
	store  kv.Store
	prefix string
}

// NewStoreSink creates a StoreSink. prefix defaults to "snapshots/".
func NewStoreSink(store kv.Store, prefix string) *StoreSink {
	if prefix == "" {
		prefix = "snapshots/"
	}
	return &StoreSink{store: store, prefix: prefix}
}

// Key returns the key used for a snapshot taken at at.
func (s *StoreSink) Key(at time.Time) string {
	return s.prefix + at.UTC().Format("20060102T150405.000000000Z")
}

// Publish stores payload.
func (s *StoreSink) Publish(ctx context.Context, at time.Time, payload []byte) error {
	if err := s.store.Set(ctx, s.Key(at), payload); err != nil {
		return fmt.Errorf("pipeline: store snapshot: %w", err)
	}
	return nil
}
