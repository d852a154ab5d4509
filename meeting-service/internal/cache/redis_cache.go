package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type RedisMeetingCache struct {
	client *redis.Client
	prefix string
}

// NewRedisMeetingCache uses a client owned by the caller.
func NewRedisMeetingCache(client *redis.Client, prefix string) *RedisMeetingCache {
	return &RedisMeetingCache{client: client, prefix: prefix}
}

func (c *RedisMeetingCache) key(meetingID string) string {
	return fmt.Sprintf("%s:meeting:%s", c.prefix, meetingID)
}

func (c *RedisMeetingCache) Get(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	data, err := c.client.Get(ctx, c.key(meetingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var meeting domain.Meeting
	if err := json.Unmarshal(data, &meeting); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &meeting, nil
}

func (c *RedisMeetingCache) Set(ctx context.Context, meeting *domain.Meeting, ttl time.Duration) error {
	data, err := json.Marshal(meeting)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := c.client.Set(ctx, c.key(meeting.MeetingID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisMeetingCache) Delete(ctx context.Context, meetingIDs ...string) error {
	if len(meetingIDs) == 0 {
		return nil
	}
	keys := make([]string, len(meetingIDs))
	for i, id := range meetingIDs {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}
