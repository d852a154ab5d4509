package audit

import (
	"context"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
)

// Audit actions for meeting-service.
const (
	ActionStartMeeting = "meeting.start"
)

const FieldAction = "action"

// Log emits a structured audit entry via the context logger.
func Log(ctx context.Context, action, userID, meetingID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldMeetingID, meetingID).
		Msg(msg)
}
