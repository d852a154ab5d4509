// Package feed keeps a live, per-table view of a meeting's inserted
// records over the chat service WebSocket.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gavinvoiceai/meetflow-saas/client/api"
)

// Tables a feed can watch.
const (
	TableChatMessages   = "chat_messages"
	TableTranscriptions = "transcriptions"
)

const (
	eventInsert     = "insert"
	frameSubscribed = "subscribed"

	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 30 * time.Second
)

var ErrMissingMeetingID = errors.New("meeting id is required")

type State int

const (
	StateUnsubscribed State = iota
	StateSubscribed
)

func (s State) String() string {
	if s == StateSubscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

// Record is an inserted chat message or transcription.
type Record struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type frame struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	MeetingID string          `json:"meeting_id"`
	Payload   json.RawMessage `json:"payload"`
}

// Subscriber watches one meeting at a time. Open replaces any previous
// subscription; Close tears it down. While the connection is down the feed
// is stale and reconnects with jittered exponential backoff.
type Subscriber struct {
	wsURL     string
	tokens    api.TokenSource
	tables    []string
	dialer    *websocket.Dialer
	baseDelay time.Duration
	maxDelay  time.Duration
	jitter    func(time.Duration) time.Duration
	onInsert  func(table string, rec Record)
	onStale   func(stale bool)

	mu        sync.Mutex
	state     State
	meetingID string
	stale     bool
	sequences map[string][]Record
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Subscriber)

// WithTables limits the watched tables. Both are watched by default.
func WithTables(tables ...string) Option {
	return func(s *Subscriber) {
		s.tables = tables
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(s *Subscriber) {
		s.dialer = d
	}
}

// WithBackoff sets the reconnect delay bounds.
func WithBackoff(base, max time.Duration) Option {
	return func(s *Subscriber) {
		s.baseDelay = base
		s.maxDelay = max
	}
}

// WithJitter replaces the random jitter applied to each reconnect delay.
func WithJitter(fn func(time.Duration) time.Duration) Option {
	return func(s *Subscriber) {
		s.jitter = fn
	}
}

// OnInsert is called, outside the subscriber's lock, for every appended
// record. Callbacks run on the feed goroutine and must not call Close.
func OnInsert(fn func(table string, rec Record)) Option {
	return func(s *Subscriber) {
		s.onInsert = fn
	}
}

// OnStale is called whenever the stale indicator flips.
func OnStale(fn func(stale bool)) Option {
	return func(s *Subscriber) {
		s.onStale = fn
	}
}

// NewSubscriber creates a subscriber for the gateway at baseURL, e.g.
// "ws://localhost:8088" or "http://localhost:8088".
func NewSubscriber(baseURL string, tokens api.TokenSource, opts ...Option) *Subscriber {
	s := &Subscriber{
		wsURL:     toWebSocketURL(baseURL),
		tokens:    tokens,
		tables:    []string{TableChatMessages, TableTranscriptions},
		dialer:    websocket.DefaultDialer,
		baseDelay: DefaultBaseDelay,
		maxDelay:  DefaultMaxDelay,
		jitter:    fullJitter,
		sequences: make(map[string][]Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func toWebSocketURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

// fullJitter picks a delay in [d/2, d).
func fullJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(d-half)))
}

// Open subscribes to meetingID, tearing down any current subscription and
// its local sequences first.
func (s *Subscriber) Open(ctx context.Context, meetingID string) error {
	if strings.TrimSpace(meetingID) == "" {
		return ErrMissingMeetingID
	}
	s.Close()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.state = StateSubscribed
	s.meetingID = meetingID
	s.stale = false
	s.sequences = make(map[string][]Record)
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(runCtx, meetingID, done)
	return nil
}

// Close ends the subscription and waits for the connection to shut down.
// Closing an unsubscribed feed is a no-op.
func (s *Subscriber) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.state = StateUnsubscribed
	s.stale = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stale reports whether the feed is currently disconnected and may be
// missing records.
func (s *Subscriber) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Subscriber) MeetingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meetingID
}

// Records returns a copy of table's records in arrival order.
func (s *Subscriber) Records(table string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.sequences[table]))
	copy(out, s.sequences[table])
	return out
}

func (s *Subscriber) watches(table string) bool {
	for _, t := range s.tables {
		if t == table {
			return true
		}
	}
	return false
}

func (s *Subscriber) run(ctx context.Context, meetingID string, done chan struct{}) {
	defer close(done)

	attempt := 0
	for {
		connected, _ := s.connect(ctx, meetingID)
		if ctx.Err() != nil {
			return
		}
		if connected {
			attempt = 0
		}
		s.setStale(meetingID, true)

		delay := s.backoff(attempt)
		attempt++
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (s *Subscriber) backoff(attempt int) time.Duration {
	d := s.baseDelay
	for i := 0; i < attempt && d < s.maxDelay; i++ {
		d *= 2
	}
	if d > s.maxDelay {
		d = s.maxDelay
	}
	return s.jitter(d)
}

// connect holds one WebSocket session. connected is true once the gateway
// confirmed the subscription.
func (s *Subscriber) connect(ctx context.Context, meetingID string) (connected bool, err error) {
	u, err := s.feedURL(ctx, meetingID)
	if err != nil {
		return false, err
	}

	conn, resp, err := s.dialer.DialContext(ctx, u, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dial feed: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return connected, err
		}
		switch f.Type {
		case frameSubscribed:
			connected = true
			s.setStale(meetingID, false)
		case eventInsert:
			s.append(meetingID, &f)
		}
	}
}

func (s *Subscriber) feedURL(ctx context.Context, meetingID string) (string, error) {
	q := url.Values{}
	q.Set("tables", strings.Join(s.tables, ","))
	if s.tokens != nil {
		token, err := s.tokens.Token(ctx)
		if err != nil {
			return "", err
		}
		q.Set("access_token", token)
	}
	return s.wsURL + "/ws/meetings/" + url.PathEscape(meetingID) + "?" + q.Encode(), nil
}

func (s *Subscriber) append(meetingID string, f *frame) {
	if f.MeetingID != meetingID || !s.watches(f.Table) {
		return
	}
	var rec Record
	if err := json.Unmarshal(f.Payload, &rec); err != nil {
		return
	}
	if rec.MeetingID != "" && rec.MeetingID != meetingID {
		return
	}

	s.mu.Lock()
	if s.meetingID != meetingID || s.state != StateSubscribed {
		s.mu.Unlock()
		return
	}
	s.sequences[f.Table] = append(s.sequences[f.Table], rec)
	s.mu.Unlock()

	if s.onInsert != nil {
		s.onInsert(f.Table, rec)
	}
}

func (s *Subscriber) setStale(meetingID string, stale bool) {
	s.mu.Lock()
	if s.meetingID != meetingID || s.state != StateSubscribed || s.stale == stale {
		s.mu.Unlock()
		return
	}
	s.stale = stale
	s.mu.Unlock()

	if s.onStale != nil {
		s.onStale(stale)
	}
}
