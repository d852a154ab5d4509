package repository

import (
	"context"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
)

// MessageRepository persists chat messages. Messages are append-only.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByMeeting(ctx context.Context, meetingID string, limit int) ([]domain.ChatMessage, error)
}
