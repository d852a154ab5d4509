package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
)

// GormTranscriptRepository implements TranscriptRepository using GORM.
type GormTranscriptRepository struct {
	db  *gorm.DB
	ids idgen.Generator
}

// NewGormTranscriptRepository uses ids for both row kinds; a sortable
// generator keeps primary keys in insertion order.
func NewGormTranscriptRepository(db *gorm.DB, ids idgen.Generator) *GormTranscriptRepository {
	return &GormTranscriptRepository{db: db, ids: ids}
}

func (r *GormTranscriptRepository) CreateWithChatMessage(ctx context.Context, t *domain.Transcription) (*domain.ChatMessage, error) {
	l := log.Ctx(ctx)

	transcriptionID, err := r.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate transcription id: %w", err)
	}
	messageID, err := r.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate chat message id: %w", err)
	}

	tm := &domain.TranscriptionModel{
		ID:        transcriptionID,
		MeetingID: t.MeetingID,
		UserID:    t.UserID,
		Content:   t.Content,
	}
	cm := &domain.ChatMessageModel{
		ID:        messageID,
		MeetingID: t.MeetingID,
		UserID:    t.UserID,
		Content:   t.Content,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tm).Error; err != nil {
			return fmt.Errorf("insert transcription: %w", err)
		}
		if err := tx.Create(cm).Error; err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
		return nil
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldMeetingID, t.MeetingID).Msg("failed to persist transcription")
		return nil, err
	}

	*t = *tm.ToDomain()
	l.Debug().Str(log.FieldRecordID, t.ID).Str(log.FieldMeetingID, t.MeetingID).Msg("transcription persisted")
	return cm.ToDomain(), nil
}

// ListByMeeting returns the most recent transcriptions in creation order.
func (r *GormTranscriptRepository) ListByMeeting(ctx context.Context, meetingID string, limit int) ([]domain.Transcription, error) {
	if limit < 1 {
		limit = 100
	}

	var models []domain.TranscriptionModel
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transcription, len(models))
	for i := range models {
		out[len(models)-1-i] = *models[i].ToDomain()
	}
	return out, nil
}

func (r *GormTranscriptRepository) GetByID(ctx context.Context, meetingID, id string) (*domain.Transcription, error) {
	var model domain.TranscriptionModel
	result := r.db.WithContext(ctx).First(&model, "id = ? AND meeting_id = ?", id, meetingID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTranscriptionNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
