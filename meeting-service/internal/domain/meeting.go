package domain

import "time"

// MeetingStatus is free text in storage; these are the values this
// service writes.
type MeetingStatus string

const (
	MeetingStatusActive MeetingStatus = "active"
)

// Meeting is a meeting record addressed by its short public MeetingID.
type Meeting struct {
	ID             string        `json:"id"`
	MeetingID      string        `json:"meeting_id"`
	HostID         string        `json:"host_id"`
	Title          *string       `json:"title,omitempty"`
	ScheduledStart *time.Time    `json:"scheduled_start,omitempty"`
	Status         MeetingStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// StartMeetingRequest is the optional body of a start request.
type StartMeetingRequest struct {
	Title          *string    `json:"title" binding:"omitempty,max=200"`
	ScheduledStart *time.Time `json:"scheduled_start"`
}

// ListMeetingsResponse is returned for the host's dashboard.
type ListMeetingsResponse struct {
	Meetings []Meeting `json:"meetings"`
	Total    int       `json:"total"`
}
