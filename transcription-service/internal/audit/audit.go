package audit

import (
	"context"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
)

// Audit actions for transcription-service.
const (
	ActionTranscribe  = "transcription.create"
	ActionDeleteAudio = "transcription.audio.delete"
)

const FieldAction = "action"

// Log emits a structured audit entry via the context logger.
func Log(ctx context.Context, action, userID, meetingID, recordID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldMeetingID, meetingID).
		Str(log.FieldRecordID, recordID).
		Msg(msg)
}
