package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
)

// GormMeetingRepository implements MeetingRepository using GORM.
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GORM-based meeting repository.
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

// Create inserts meeting. The caller supplies MeetingID; uniqueness is
// enforced by the table's unique index.
func (r *GormMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	l := log.Ctx(ctx)

	meeting.ID = uuid.New().String()
	if meeting.Status == "" {
		meeting.Status = domain.MeetingStatusActive
	}

	model := domain.MeetingToModel(meeting)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateMeetingID
		}
		l.Error().Err(err).Str(log.FieldMeetingID, meeting.MeetingID).Msg("failed to create meeting in db")
		return err
	}

	meeting.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldMeetingID, meeting.MeetingID).Msg("meeting created in db")
	return nil
}

// GetByMeetingID returns the single meeting with this public id.
func (r *GormMeetingRepository) GetByMeetingID(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	l := log.Ctx(ctx)

	var models []domain.MeetingModel
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Limit(2).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldMeetingID, meetingID).Msg("failed to get meeting")
		return nil, err
	}

	switch len(models) {
	case 0:
		return nil, ErrMeetingNotFound
	case 1:
		return models[0].ToDomain(), nil
	default:
		return nil, ErrMeetingAmbiguous
	}
}

// ListByHost returns the host's meetings, newest first.
func (r *GormMeetingRepository) ListByHost(ctx context.Context, hostID string, limit int) ([]domain.Meeting, error) {
	l := log.Ctx(ctx)

	if limit < 1 {
		limit = 50
	}

	var models []domain.MeetingModel
	err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, hostID).Msg("failed to list host meetings")
		return nil, err
	}

	meetings := make([]domain.Meeting, len(models))
	for i := range models {
		meetings[i] = *models[i].ToDomain()
	}
	return meetings, nil
}
