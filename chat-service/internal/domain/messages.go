package domain

import "github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"

// Feed frame types, server to client. Insert frames are the bus events
// themselves, with type "insert".
const (
	MsgTypeSubscribed = "subscribed"
	MsgTypeError      = "error"
	MsgTypePong       = "pong"
)

// Client to server.
const (
	MsgTypePing = "ping"
)

// Error codes
const (
	ErrCodeBadRequest = "BAD_REQUEST"
)

// FeedTables are the tables a feed connection may subscribe to.
var FeedTables = []string{pubsub.TableChatMessages, pubsub.TableTranscriptions}

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// SubscribedMessage confirms the feed is live for the listed tables.
type SubscribedMessage struct {
	Type      string   `json:"type"`
	MeetingID string   `json:"meeting_id"`
	Tables    []string `json:"tables"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
