package domain

import (
	"time"

	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

// ChatMessage is one line of meeting chat.
type ChatMessage struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Record converts the message into a feed payload.
func (m *ChatMessage) Record() pubsub.Record {
	return pubsub.Record{ID: m.ID, MeetingID: m.MeetingID, UserID: m.UserID, Content: m.Content, CreatedAt: m.CreatedAt}
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type ListMessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
	Total    int           `json:"total"`
}

// ChatMessageModel is the GORM model for the chat_messages table.
type ChatMessageModel struct {
	ID        string    `gorm:"type:varchar(26);primaryKey"`
	MeetingID string    `gorm:"type:varchar(64);index;not null"`
	UserID    string    `gorm:"type:varchar(36);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessageModel) TableName() string {
	return "chat_messages"
}

func (m *ChatMessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:        m.ID,
		MeetingID: m.MeetingID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
