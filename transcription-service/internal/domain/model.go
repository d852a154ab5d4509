package domain

import (
	"time"

	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

// TranscriptionModel is the GORM model for the transcriptions table.
type TranscriptionModel struct {
	ID        string    `gorm:"type:varchar(26);primaryKey"`
	MeetingID string    `gorm:"type:varchar(64);index;not null"`
	UserID    string    `gorm:"type:varchar(36);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (TranscriptionModel) TableName() string {
	return "transcriptions"
}

// ChatMessageModel is the GORM model for the chat_messages table, shared
// with chat-service.
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

func (m *TranscriptionModel) ToDomain() *Transcription {
	return &Transcription{
		ID:        m.ID,
		MeetingID: m.MeetingID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
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

// Record converts a transcription into a feed payload.
func (t *Transcription) Record() pubsub.Record {
	return pubsub.Record{ID: t.ID, MeetingID: t.MeetingID, UserID: t.UserID, Content: t.Content, CreatedAt: t.CreatedAt}
}

// Record converts a chat message into a feed payload.
func (m *ChatMessage) Record() pubsub.Record {
	return pubsub.Record{ID: m.ID, MeetingID: m.MeetingID, UserID: m.UserID, Content: m.Content, CreatedAt: m.CreatedAt}
}
