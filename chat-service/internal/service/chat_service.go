package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/audit"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

const MaxMessageLength = 2000

var (
	ErrEmptyMessage   = errors.New("message content is empty")
	ErrMessageTooLong = errors.New("message content is too long")
	ErrMissingMeeting = errors.New("meeting id is required")
)

type chatService struct {
	repo      repository.MessageRepository
	publisher pubsub.Publisher
}

func NewChatService(repo repository.MessageRepository, publisher pubsub.Publisher) ChatService {
	return &chatService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *chatService) SendMessage(ctx context.Context, meetingID, userID, content string) (*domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	switch {
	case meetingID == "":
		return nil, ErrMissingMeeting
	case content == "":
		return nil, ErrEmptyMessage
	case utf8.RuneCountInString(content) > MaxMessageLength:
		return nil, ErrMessageTooLong
	}

	ctx = log.WithField(ctx, log.FieldMeetingID, meetingID)
	msg := &domain.ChatMessage{
		MeetingID: meetingID,
		UserID:    userID,
		Content:   content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		l := log.Ctx(ctx)
		evt, err := pubsub.NewInsertEvent(pubsub.TableChatMessages, msg.Record())
		if err == nil {
			err = s.publisher.Publish(ctx, pubsub.MeetingFeedChannel(meetingID), evt)
		}
		if err != nil {
			l.Error().Err(err).Str(log.FieldRecordID, msg.ID).Msg("failed to publish chat message")
		}
	}

	audit.Log(ctx, audit.ActionSendMessage, userID, meetingID, "chat message sent")
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, meetingID string, limit int) (*domain.ListMessagesResponse, error) {
	if meetingID == "" {
		return nil, ErrMissingMeeting
	}
	msgs, err := s.repo.ListByMeeting(ctx, meetingID, limit)
	if err != nil {
		return nil, err
	}
	return &domain.ListMessagesResponse{Messages: msgs, Total: len(msgs)}, nil
}
