package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
)

const eventBuffer = 100

// RedisPubSub implements PubSub on Redis PUBLISH/SUBSCRIBE.
type RedisPubSub struct {
	client        *redis.Client
	ownsClient    bool
	subscriptions map[string]*redis.PubSub
	mu            sync.Mutex
}

// NewRedisClient dials Redis and verifies the connection. Services use it
// for the bus, caches and token revocation alike.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisPubSub dials Redis and owns the resulting client.
func NewRedisPubSub(cfg RedisConfig) (*RedisPubSub, error) {
	client, err := NewRedisClient(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	ps := NewRedisPubSubWithClient(client)
	ps.ownsClient = true
	return ps, nil
}

// NewRedisPubSubWithClient reuses a client owned by the caller; Close
// leaves it open.
func NewRedisPubSubWithClient(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
	}
}

// Publish publishes an event to the specified channel.
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// SubscribePattern subscribes to channels matching a pattern.
func (r *RedisPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	return r.subscribe(ctx, pattern, r.client.PSubscribe(ctx, pattern))
}

func (r *RedisPubSub) subscribe(ctx context.Context, key string, sub *redis.PubSub) (<-chan *Event, error) {
	// wait for the server to confirm, so publishes right after return are not lost
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe %s: %w", key, err)
	}

	r.mu.Lock()
	if existing, ok := r.subscriptions[key]; ok {
		existing.Close()
	}
	r.subscriptions[key] = sub
	r.mu.Unlock()

	eventCh := make(chan *Event, eventBuffer)
	go r.processMessages(ctx, sub, eventCh)
	return eventCh, nil
}

// Unsubscribe unsubscribes from a channel or pattern.
func (r *RedisPubSub) Unsubscribe(ctx context.Context, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.subscriptions[channel]; ok {
		delete(r.subscriptions, channel)
		if err := sub.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all subscriptions, and the client when this instance dialed it.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, sub := range r.subscriptions {
		sub.Close()
		delete(r.subscriptions, key)
	}
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}

// Client exposes the underlying Redis client for caches sharing the connection.
func (r *RedisPubSub) Client() *redis.Client {
	return r.client
}

func (r *RedisPubSub) processMessages(ctx context.Context, sub *redis.PubSub, eventCh chan<- *Event) {
	defer close(eventCh)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				l := log.L()
				l.Warn().Err(err).Str(log.FieldChannel, msg.Channel).Msg("dropping malformed event")
				continue
			}
			if event.MeetingID == "" {
				event.MeetingID, _ = MeetingIDFromChannel(msg.Channel)
			}

			select {
			case eventCh <- &event:
			case <-ctx.Done():
				return
			default:
				l := log.L()
				l.Warn().Str(log.FieldChannel, msg.Channel).Msg("event buffer full, dropping event")
			}
		}
	}
}
