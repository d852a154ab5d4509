package repository

import (
	"context"
	"errors"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
)

var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrMeetingAmbiguous   = errors.New("meeting id matches more than one row")
	ErrDuplicateMeetingID = errors.New("meeting id already exists")
)

// MeetingRepository defines the interface for meeting persistence.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByMeetingID(ctx context.Context, meetingID string) (*domain.Meeting, error)
	ListByHost(ctx context.Context, hostID string, limit int) ([]domain.Meeting, error)
}
