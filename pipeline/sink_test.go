package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hupe1980/hypervec/kv"
)

func TestStoreSink(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sink := NewStoreSink(store, "")

	t1 := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	t2 := t1.Add(time.Second)
	require.NoError(t, sink.Publish(ctx, t2, []byte("b")))
	require.NoError(t, sink.Publish(ctx, t1, []byte("a")))

	keys, err := store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{sink.Key(t1), sink.Key(t2)}, keys)
	assert.Equal(t, "snapshots/20260102T030405.000000006Z", sink.Key(t1))
}

func TestChannelSink_RespectsContext(t *testing.T) {
	sink := NewChannelSink(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Publish(ctx, time.Now(), nil), context.Canceled)
}

func TestPublisher_RateLimit(t *testing.T) {
	var got []string
	sink := SinkFunc(func(_ context.Context, _ time.Time, p []byte) error {
		got = append(got, string(p))
		return nil
	})
	pub := NewPublisher(sink, rate.Every(time.Minute), 2)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, []byte("1")))
	require.NoError(t, pub.Publish(ctx, []byte("2")))
	assert.ErrorIs(t, pub.Publish(ctx, []byte("3")), ErrThrottled)

	now = now.Add(time.Minute)
	require.NoError(t, pub.Publish(ctx, []byte("4")))

	assert.Equal(t, []string{"1", "2", "4"}, got)
	assert.Equal(t, uint64(3), pub.Published())
	assert.Equal(t, uint64(1), pub.Throttled())
}
