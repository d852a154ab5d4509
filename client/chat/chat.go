// Package chat posts and lists meeting chat messages.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/client/api"
)

type Message struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type listResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

type Client struct {
	api *api.Client
}

func New(c *api.Client) *Client {
	return &Client{api: c}
}

func messagesPath(meetingID string) string {
	return fmt.Sprintf("/api/v1/meetings/%s/messages", url.PathEscape(meetingID))
}

// Send posts a message. The feed delivers it back to every participant.
func (c *Client) Send(ctx context.Context, meetingID, content string) (*Message, error) {
	var m Message
	if err := c.api.Do(ctx, http.MethodPost, messagesPath(meetingID), map[string]string{"content": content}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// History returns up to limit recent messages, oldest first.
func (c *Client) History(ctx context.Context, meetingID string, limit int) ([]Message, error) {
	path := messagesPath(meetingID)
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var resp listResponse
	if err := c.api.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}
