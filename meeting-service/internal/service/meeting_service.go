package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/audit"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/cache"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
)

var (
	ErrMeetingNotFound  = errors.New("meeting not found")
	ErrMeetingAmbiguous = errors.New("meeting id is ambiguous")
	ErrMeetingIDTaken   = errors.New("generated meeting id already exists")
	ErrInvalidMeetingID = errors.New("invalid meeting id")
)

// meetingServiceImpl implements MeetingService.
type meetingServiceImpl struct {
	repo     repository.MeetingRepository
	cache    cache.MeetingCache
	ids      idgen.Generator
	cacheTTL time.Duration
	metrics  *metrics.MeetingMetrics
}

// NewMeetingService wires the registry. cache and m may be nil.
func NewMeetingService(
	repo repository.MeetingRepository,
	ids idgen.Generator,
	meetingCache cache.MeetingCache,
	cacheTTL time.Duration,
	m *metrics.MeetingMetrics,
) MeetingService {
	return &meetingServiceImpl{
		repo:     repo,
		cache:    meetingCache,
		ids:      ids,
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// StartMeeting mints a public id and stores an active meeting. A
// collision with an existing id is reported, not retried.
func (s *meetingServiceImpl) StartMeeting(ctx context.Context, hostID string, req *domain.StartMeetingRequest) (*domain.Meeting, error) {
	meetingID, err := s.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate meeting id: %w", err)
	}
	ctx = log.WithField(ctx, log.FieldMeetingID, meetingID)

	meeting := &domain.Meeting{
		MeetingID: meetingID,
		HostID:    hostID,
		Status:    domain.MeetingStatusActive,
	}
	if req != nil {
		meeting.Title = req.Title
		meeting.ScheduledStart = req.ScheduledStart
	}

	if err := s.repo.Create(ctx, meeting); err != nil {
		if errors.Is(err, repository.ErrDuplicateMeetingID) {
			return nil, ErrMeetingIDTaken
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Started.Inc()
	}
	s.cacheMeeting(ctx, meeting)
	audit.Log(ctx, audit.ActionStartMeeting, hostID, meetingID, "meeting started")

	return meeting, nil
}

// FetchMeeting returns exactly one meeting for the public id.
func (s *meetingServiceImpl) FetchMeeting(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	l := log.Ctx(ctx)

	if meetingID == "" {
		return nil, ErrInvalidMeetingID
	}

	if s.cache != nil {
		meeting, err := s.cache.Get(ctx, meetingID)
		switch {
		case err == nil:
			s.observeCache("hit")
			return meeting, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.observeCache("miss")
		default:
			s.observeCache("error")
			l.Warn().Err(err).Str(log.FieldMeetingID, meetingID).Msg("meeting cache get failed")
		}
	}

	meeting, err := s.repo.GetByMeetingID(ctx, meetingID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMeetingNotFound):
			return nil, ErrMeetingNotFound
		case errors.Is(err, repository.ErrMeetingAmbiguous):
			return nil, ErrMeetingAmbiguous
		}
		return nil, err
	}

	s.cacheMeeting(ctx, meeting)
	return meeting, nil
}

// ListMyMeetings returns the host's recent meetings.
func (s *meetingServiceImpl) ListMyMeetings(ctx context.Context, hostID string) (*domain.ListMeetingsResponse, error) {
	meetings, err := s.repo.ListByHost(ctx, hostID, 50)
	if err != nil {
		return nil, err
	}
	return &domain.ListMeetingsResponse{Meetings: meetings, Total: len(meetings)}, nil
}

func (s *meetingServiceImpl) cacheMeeting(ctx context.Context, meeting *domain.Meeting) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, meeting, s.cacheTTL); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldMeetingID, meeting.MeetingID).Msg("meeting cache set failed")
	}
}

func (s *meetingServiceImpl) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookup.WithLabelValues(result).Inc()
	}
}
