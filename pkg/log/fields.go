package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID = "user_id"
	FieldEmail  = "email"

	// Domain
	FieldMeetingID = "meeting_id"
	FieldTable     = "table"
	FieldRecordID  = "record_id"
	FieldChannel   = "channel"
	FieldBytes     = "bytes"

	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
