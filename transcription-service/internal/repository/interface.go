package repository

import (
	"context"
	"errors"

	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
)

var ErrTranscriptionNotFound = errors.New("transcription not found")

// TranscriptRepository persists transcriptions and their chat mirror.
type TranscriptRepository interface {
	// CreateWithChatMessage inserts t and a ChatMessage with the same
	// content in one transaction. IDs and timestamps are filled in.
	CreateWithChatMessage(ctx context.Context, t *domain.Transcription) (*domain.ChatMessage, error)
	ListByMeeting(ctx context.Context, meetingID string, limit int) ([]domain.Transcription, error)
	GetByID(ctx context.Context, meetingID, id string) (*domain.Transcription, error)
}

// TranscriptIndex is the full-text index over transcripts.
type TranscriptIndex interface {
	Index(ctx context.Context, t *domain.Transcription) error
	Search(ctx context.Context, meetingID, query string, offset, limit int) ([]domain.Transcription, int, error)
}
