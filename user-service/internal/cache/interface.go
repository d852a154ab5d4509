package cache

import (
	"context"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/domain"
)

// UserCache holds public profiles keyed by user ID.
type UserCache interface {
	Get(ctx context.Context, userID string) (*domain.UserResponse, error)
	Set(ctx context.Context, user *domain.UserResponse, ttl time.Duration) error
	Delete(ctx context.Context, userIDs ...string) error
}
