package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

type collector struct {
	mu     sync.Mutex
	events []*pubsub.Event
}

func (c *collector) Dispatch(evt *pubsub.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestSubscriberForwardsMeetingEvents(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	bus := pubsub.NewRedisPubSubWithClient(client)

	sink := &collector{}
	sub := NewSubscriber(bus, sink, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go sub.Run(ctx)

	evt, err := pubsub.NewInsertEvent(pubsub.TableChatMessages, pubsub.Record{ID: "1", MeetingID: "m1", Content: "hi"})
	require.NoError(t, err)

	// Publish until the pattern subscription is live.
	require.Eventually(t, func() bool {
		_ = bus.Publish(context.Background(), pubsub.MeetingFeedChannel("m1"), evt)
		return sink.len() > 0
	}, 2*time.Second, 20*time.Millisecond)

	sink.mu.Lock()
	got := sink.events[0]
	sink.mu.Unlock()
	assert.Equal(t, "m1", got.MeetingID)
	assert.Equal(t, pubsub.TableChatMessages, got.Table)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}
}

// flakyBus fails the first subscription and closes the second.
type flakyBus struct {
	mu    sync.Mutex
	calls int
}

func (b *flakyBus) SubscribePattern(ctx context.Context, pattern string) (<-chan *pubsub.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	switch b.calls {
	case 1:
		return nil, errors.New("bus unavailable")
	case 2:
		ch := make(chan *pubsub.Event)
		close(ch)
		return ch, nil
	default:
		ch := make(chan *pubsub.Event, 1)
		ch <- &pubsub.Event{Type: pubsub.EventInsert, MeetingID: "m1", Table: pubsub.TableChatMessages}
		return ch, nil
	}
}

func (b *flakyBus) Unsubscribe(context.Context, string) error { return nil }

func TestSubscriberReconnects(t *testing.T) {
	bus := &flakyBus{}
	sink := &collector{}
	m := metrics.NewFeedMetrics(prometheus.NewRegistry())

	sub := NewSubscriber(bus, sink, time.Millisecond, m)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sub.Run(ctx)

	require.Eventually(t, func() bool { return sink.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.Reconnects), 2.0)
}
