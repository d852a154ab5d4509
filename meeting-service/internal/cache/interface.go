package cache

import (
	"context"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
)

// MeetingCache is a read-through cache of meetings by public id.
type MeetingCache interface {
	Get(ctx context.Context, meetingID string) (*domain.Meeting, error)
	Set(ctx context.Context, meeting *domain.Meeting, ttl time.Duration) error
	Delete(ctx context.Context, meetingIDs ...string) error
}
