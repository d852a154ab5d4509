// Package registry creates and looks up meetings.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/client/api"
)

var (
	// ErrMeetingUnavailable covers not found, ambiguous and backend
	// failures alike.
	ErrMeetingUnavailable = errors.New("meeting unavailable")
	ErrStartFailed        = errors.New("could not start meeting")
	ErrMissingMeetingID   = errors.New("meeting id is required")
)

type Meeting struct {
	ID             string     `json:"id"`
	MeetingID      string     `json:"meeting_id"`
	HostID         string     `json:"host_id"`
	Title          *string    `json:"title,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DisplayTitle falls back to the public id for untitled meetings.
func (m *Meeting) DisplayTitle() string {
	if m.Title != nil && strings.TrimSpace(*m.Title) != "" {
		return *m.Title
	}
	return m.MeetingID
}

type startRequest struct {
	Title          *string    `json:"title,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
}

type listResponse struct {
	Meetings []Meeting `json:"meetings"`
	Total    int       `json:"total"`
}

// Client calls the meeting service. Authentication comes from the api
// client's token source.
type Client struct {
	api *api.Client
}

func New(c *api.Client) *Client {
	return &Client{api: c}
}

// StartMeeting creates an active meeting hosted by the signed-in user.
// A rejected insert is not retried.
func (c *Client) StartMeeting(ctx context.Context, title string, scheduledStart *time.Time) (*Meeting, error) {
	req := startRequest{ScheduledStart: scheduledStart}
	if t := strings.TrimSpace(title); t != "" {
		req.Title = &t
	}

	var m Meeting
	if err := c.api.Do(ctx, http.MethodPost, "/api/v1/meetings", req, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}
	return &m, nil
}

// FetchMeeting returns the single meeting with the given public id.
func (c *Client) FetchMeeting(ctx context.Context, meetingID string) (*Meeting, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: %w", ErrMeetingUnavailable, ErrMissingMeetingID)
	}

	var m Meeting
	if err := c.api.Do(ctx, http.MethodGet, "/api/v1/meetings/"+url.PathEscape(meetingID), nil, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMeetingUnavailable, err)
	}
	if m.MeetingID != meetingID {
		return nil, fmt.Errorf("%w: unexpected meeting %q", ErrMeetingUnavailable, m.MeetingID)
	}
	return &m, nil
}

// ListMeetings returns the signed-in user's meetings, newest first.
func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	var resp listResponse
	if err := c.api.Do(ctx, http.MethodGet, "/api/v1/meetings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Meetings, nil
}
