package service

import (
	"context"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
)

// MeetingService defines the meeting registry operations.
type MeetingService interface {
	StartMeeting(ctx context.Context, hostID string, req *domain.StartMeetingRequest) (*domain.Meeting, error)
	FetchMeeting(ctx context.Context, meetingID string) (*domain.Meeting, error)
	ListMyMeetings(ctx context.Context, hostID string) (*domain.ListMeetingsResponse, error)
}
