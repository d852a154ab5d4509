package service

import (
	"context"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
)

// ChatService stores chat messages and announces them on the feed.
type ChatService interface {
	SendMessage(ctx context.Context, meetingID, userID, content string) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, meetingID string, limit int) (*domain.ListMessagesResponse, error)
}
