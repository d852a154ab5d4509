package audit

import (
	"context"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
)

// Audit actions for chat-service.
const (
	ActionSendMessage = "chat.send_message"
	ActionFeedOpen    = "chat.feed_open"
	ActionFeedClose   = "chat.feed_close"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, meetingID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldMeetingID, meetingID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, userID, meetingID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldMeetingID, meetingID).
		Str(FieldDetail, detail).
		Msg(msg)
}
