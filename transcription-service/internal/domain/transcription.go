package domain

import "time"

// Transcription is one recognised audio slice.
type Transcription struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage mirrors a transcription into the meeting chat.
type ChatMessage struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscribeRequest is the function invocation body.
type TranscribeRequest struct {
	AudioData string `json:"audio_data"`
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id"`
}

// TranscribeResponse is returned on success.
type TranscribeResponse struct {
	Transcription string `json:"transcription"`
}

// ErrorResponse is returned on any failure of the function.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryResponse lists a meeting's transcriptions in creation order.
type HistoryResponse struct {
	Transcriptions []Transcription `json:"transcriptions"`
	Total          int             `json:"total"`
}

// SearchRequest is the transcript search query.
type SearchRequest struct {
	Query  string `form:"q" binding:"required"`
	Offset int    `form:"offset"`
	Limit  int    `form:"limit"`
}

// SearchResponse is the transcript search result.
type SearchResponse struct {
	Transcriptions []Transcription `json:"transcriptions"`
	Total          int             `json:"total"`
}

// AudioURLResponse points at a transcription's archived audio.
type AudioURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
