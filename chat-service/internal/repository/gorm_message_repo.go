package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
)

type GormMessageRepository struct {
	db  *gorm.DB
	ids idgen.Generator
}

func NewGormMessageRepository(db *gorm.DB, ids idgen.Generator) *GormMessageRepository {
	return &GormMessageRepository{db: db, ids: ids}
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	id, err := r.ids.Generate()
	if err != nil {
		return fmt.Errorf("generate message id: %w", err)
	}

	model := &domain.ChatMessageModel{
		ID:        id,
		MeetingID: msg.MeetingID,
		UserID:    msg.UserID,
		Content:   msg.Content,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldMeetingID, msg.MeetingID).Msg("failed to insert chat message")
		return err
	}

	*msg = *model.ToDomain()
	return nil
}

// ListByMeeting returns the latest limit messages, oldest first.
func (r *GormMessageRepository) ListByMeeting(ctx context.Context, meetingID string, limit int) ([]domain.ChatMessage, error) {
	if limit < 1 {
		limit = 100
	}

	var models []domain.ChatMessageModel
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.ChatMessage, len(models))
	for i := range models {
		out[len(models)-1-i] = *models[i].ToDomain()
	}
	return out, nil
}
