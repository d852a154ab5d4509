package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
	"github.com/gavinvoiceai/meetflow-saas/pkg/storage"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/audit"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/repository"
)

const (
	AudioFilename    = "audio.webm"
	AudioContentType = "audio/webm"

	// AudioURLExpiry bounds presigned archive links.
	AudioURLExpiry = 15 * time.Minute
)

var (
	ErrInvalidRequest     = errors.New("invalid transcription request")
	ErrInvalidAudio       = errors.New("audio_data is not valid base64")
	ErrEmptyTranscript    = errors.New("transcription failed: empty transcript")
	ErrTranscriptionAPI   = errors.New("transcription failed")
	ErrPersistFailed      = errors.New("failed to store transcription")
	ErrSearchNotAvailable = errors.New("transcript search is not configured")

	ErrArchiveNotAvailable = errors.New("audio archive is not configured")
	ErrAudioNotFound       = errors.New("audio not found")
	ErrNotSpeaker          = errors.New("only the speaker may delete this audio")
)

type transcriptionServiceImpl struct {
	repo      repository.TranscriptRepository
	stt       Transcriber
	publisher pubsub.Publisher

	archive   storage.Storage
	index     repository.TranscriptIndex
	metrics   *metrics.TranscriptionMetrics
}

// Option wires an optional collaborator.
type Option func(*transcriptionServiceImpl)

// WithArchive stores the audio of every persisted transcription under
// audio/{meeting}/{transcription}.webm.
func WithArchive(store storage.Storage) Option {
	return func(s *transcriptionServiceImpl) {
		s.archive = store
	}
}

// WithSearchIndex indexes persisted transcripts and enables Search.
func WithSearchIndex(index repository.TranscriptIndex) Option {
	return func(s *transcriptionServiceImpl) {
		s.index = index
	}
}

func WithMetrics(m *metrics.TranscriptionMetrics) Option {
	return func(s *transcriptionServiceImpl) {
		s.metrics = m
	}
}

// NewTranscriptionService creates a transcription service. publisher may be nil.
func NewTranscriptionService(
	repo repository.TranscriptRepository,
	stt Transcriber,
	publisher pubsub.Publisher,
	opts ...Option,
) TranscriptionService {
	s := &transcriptionServiceImpl{
		repo:      repo,
		stt:       stt,
		publisher: publisher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *transcriptionServiceImpl) Transcribe(ctx context.Context, req *domain.TranscribeRequest) (string, error) {
	audio, err := validate(req)
	if err != nil {
		s.observe(metrics.OutcomeInvalid)
		return "", err
	}

	ctx = log.WithField(ctx, log.FieldMeetingID, req.MeetingID)
	l := log.Ctx(ctx)

	if s.metrics != nil {
		s.metrics.AudioBytes.Observe(float64(len(audio)))
	}

	start := time.Now()
	text, err := s.stt.Transcribe(ctx, audio, AudioFilename, AudioContentType)
	if s.metrics != nil {
		s.metrics.UpstreamSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.observe(metrics.OutcomeUpstreamFail)
		l.Error().Err(err).Int(log.FieldBytes, len(audio)).Msg("speech-to-text request failed")
		return "", fmt.Errorf("%w: %w", ErrTranscriptionAPI, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.observe(metrics.OutcomeEmpty)
		l.Warn().Int(log.FieldBytes, len(audio)).Msg("speech-to-text returned no text")
		return "", ErrEmptyTranscript
	}

	t := &domain.Transcription{
		MeetingID: req.MeetingID,
		UserID:    req.UserID,
		Content:   text,
	}
	msg, err := s.repo.CreateWithChatMessage(ctx, t)
	if err != nil {
		s.observe(metrics.OutcomePersistFail)
		return "", fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	// Rows are committed; feed, index and archive failures only cost freshness.
	s.publish(ctx, pubsub.TableTranscriptions, t.Record())
	s.publish(ctx, pubsub.TableChatMessages, msg.Record())
	s.archiveAudio(ctx, t, audio)
	if s.index != nil {
		if err := s.index.Index(ctx, t); err != nil {
			l.Warn().Err(err).Str(log.FieldRecordID, t.ID).Msg("failed to index transcript")
		}
	}

	s.observe(metrics.OutcomeSuccess)
	audit.Log(ctx, audit.ActionTranscribe, req.UserID, req.MeetingID, t.ID, "transcription stored")
	return text, nil
}

func (s *transcriptionServiceImpl) History(ctx context.Context, meetingID string, limit int) (*domain.HistoryResponse, error) {
	if meetingID == "" {
		return nil, ErrInvalidRequest
	}
	items, err := s.repo.ListByMeeting(ctx, meetingID, limit)
	if err != nil {
		return nil, err
	}
	return &domain.HistoryResponse{Transcriptions: items, Total: len(items)}, nil
}

func (s *transcriptionServiceImpl) Search(ctx context.Context, meetingID string, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	if s.index == nil {
		return nil, ErrSearchNotAvailable
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	hits, total, err := s.index.Search(ctx, meetingID, req.Query, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}
	return &domain.SearchResponse{Transcriptions: hits, Total: total}, nil
}

func validate(req *domain.TranscribeRequest) ([]byte, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	var missing []string
	if req.AudioData == "" {
		missing = append(missing, "audio_data")
	}
	if req.MeetingID == "" {
		missing = append(missing, "meeting_id")
	}
	if req.UserID == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil || len(audio) == 0 {
		return nil, ErrInvalidAudio
	}
	return audio, nil
}

func (s *transcriptionServiceImpl) publish(ctx context.Context, table string, rec pubsub.Record) {
	if s.publisher == nil {
		return
	}
	l := log.Ctx(ctx)

	evt, err := pubsub.NewInsertEvent(table, rec)
	if err != nil {
		l.Error().Err(err).Str(log.FieldTable, table).Msg("failed to build feed event")
		return
	}
	if err := s.publisher.Publish(ctx, pubsub.MeetingFeedChannel(rec.MeetingID), evt); err != nil {
		l.Error().Err(err).Str(log.FieldTable, table).Str(log.FieldRecordID, rec.ID).Msg("failed to publish feed event")
	}
}

func audioKey(meetingID, transcriptionID string) string {
	return fmt.Sprintf("audio/%s/%s.webm", meetingID, transcriptionID)
}

func (s *transcriptionServiceImpl) archiveAudio(ctx context.Context, t *domain.Transcription, audio []byte) {
	if s.archive == nil {
		return
	}
	key := audioKey(t.MeetingID, t.ID)
	if err := s.archive.Write(ctx, key, bytes.NewReader(audio), int64(len(audio)), AudioContentType); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("failed to archive audio")
	}
}

func (s *transcriptionServiceImpl) AudioURL(ctx context.Context, meetingID, transcriptionID string) (*domain.AudioURLResponse, error) {
	if s.archive == nil {
		return nil, ErrArchiveNotAvailable
	}
	key := audioKey(meetingID, transcriptionID)
	ok, err := s.archive.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAudioNotFound
	}
	url, err := s.archive.GetURL(ctx, key, AudioURLExpiry)
	if err != nil {
		return nil, err
	}
	return &domain.AudioURLResponse{URL: url, ExpiresAt: time.Now().Add(AudioURLExpiry)}, nil
}

func (s *transcriptionServiceImpl) OpenAudio(ctx context.Context, meetingID, transcriptionID string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, ErrArchiveNotAvailable
	}
	rc, err := s.archive.Read(ctx, audioKey(meetingID, transcriptionID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAudioNotFound
	}
	return rc, err
}

func (s *transcriptionServiceImpl) DeleteAudio(ctx context.Context, meetingID, transcriptionID, userID string) error {
	if s.archive == nil {
		return ErrArchiveNotAvailable
	}
	t, err := s.repo.GetByID(ctx, meetingID, transcriptionID)
	if errors.Is(err, repository.ErrTranscriptionNotFound) {
		return ErrAudioNotFound
	}
	if err != nil {
		return err
	}
	if t.UserID != userID {
		return ErrNotSpeaker
	}
	if err := s.archive.Delete(ctx, audioKey(meetingID, transcriptionID)); err != nil {
		return err
	}
	audit.Log(ctx, audit.ActionDeleteAudio, userID, meetingID, transcriptionID, "archived audio deleted")
	return nil
}

func (s *transcriptionServiceImpl) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(outcome).Inc()
	}
}
