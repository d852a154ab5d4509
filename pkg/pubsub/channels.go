package pubsub

import (
	"fmt"
	"strings"
	"time"
)

// Channel naming for the per-meeting change feed.
const (
	ChannelMeetingFeed = "meeting:%s:feed"
	PatternMeetingFeed = "meeting:*:feed"
)

// Event types. Only inserts are produced; records are append-only.
const (
	EventInsert = "insert"
)

// Tables a feed event can originate from.
const (
	TableChatMessages   = "chat_messages"
	TableTranscriptions = "transcriptions"
)

// MeetingFeedChannel returns the channel carrying one meeting's inserts.
func MeetingFeedChannel(meetingID string) string {
	return fmt.Sprintf(ChannelMeetingFeed, meetingID)
}

// MeetingIDFromChannel is the inverse of MeetingFeedChannel.
func MeetingIDFromChannel(channel string) (string, bool) {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[0] != "meeting" || parts[2] != "feed" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Record is the row payload of an insert event. Chat messages and
// transcriptions share the same shape.
type Record struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewInsertEvent wraps a freshly inserted row for the feed.
func NewInsertEvent(table string, rec Record) (*Event, error) {
	evt, err := NewEvent(EventInsert, rec.MeetingID, rec)
	if err != nil {
		return nil, err
	}
	evt.Table = table
	return evt, nil
}
