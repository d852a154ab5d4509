package service

import (
	"context"
	"io"

	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
)

// TranscriptionService turns audio slices into transcripts.
type TranscriptionService interface {
	// Transcribe returns the recognised text after persisting it.
	Transcribe(ctx context.Context, req *domain.TranscribeRequest) (string, error)
	History(ctx context.Context, meetingID string, limit int) (*domain.HistoryResponse, error)
	Search(ctx context.Context, meetingID string, req *domain.SearchRequest) (*domain.SearchResponse, error)

	// AudioURL, OpenAudio and DeleteAudio serve the archived slice of a
	// transcription. They fail with ErrArchiveNotAvailable when archiving
	// is off.
	AudioURL(ctx context.Context, meetingID, transcriptionID string) (*domain.AudioURLResponse, error)
	OpenAudio(ctx context.Context, meetingID, transcriptionID string) (io.ReadCloser, error)
	// DeleteAudio is limited to the speaker of the transcription.
	DeleteAudio(ctx context.Context, meetingID, transcriptionID, userID string) error
}

// Transcriber is the speech-to-text backend.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error)
}
