// Package feed bridges the event bus to the local hub.
package feed

import (
	"context"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

// Dispatcher receives bus events; *hub.Hub implements it.
type Dispatcher interface {
	Dispatch(evt *pubsub.Event)
}

// Subscriber pattern-subscribes to every meeting feed and hands events to
// the dispatcher. It resubscribes after the bus drops the subscription.
type Subscriber struct {
	bus        pubsub.Subscriber
	dispatcher Dispatcher
	retryDelay time.Duration
	metrics    *metrics.FeedMetrics
	doneCh     chan struct{}
}

// NewSubscriber creates a bus subscriber. m may be nil.
func NewSubscriber(bus pubsub.Subscriber, d Dispatcher, retryDelay time.Duration, m *metrics.FeedMetrics) *Subscriber {
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	return &Subscriber{
		bus:        bus,
		dispatcher: d,
		retryDelay: retryDelay,
		metrics:    m,
		doneCh:     make(chan struct{}),
	}
}

// Done returns a channel that is closed when Run() exits.
func (s *Subscriber) Done() <-chan struct{} { return s.doneCh }

// Run subscribes and dispatches until ctx is done.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.doneCh)
	l := log.L()

	for {
		err := s.runSubscription(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.Warn().Err(err).Dur("retry_in", s.retryDelay).Msg("feed subscription error, reconnecting")
		} else {
			l.Warn().Dur("retry_in", s.retryDelay).Msg("feed subscription closed, reconnecting")
		}
		if s.metrics != nil {
			s.metrics.Reconnects.Inc()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.retryDelay):
		}
	}
}

func (s *Subscriber) runSubscription(ctx context.Context) error {
	events, err := s.bus.SubscribePattern(ctx, pubsub.PatternMeetingFeed)
	if err != nil {
		return err
	}
	defer s.bus.Unsubscribe(context.Background(), pubsub.PatternMeetingFeed)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			s.dispatcher.Dispatch(evt)
		}
	}
}
