package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

// Hub fans feed events out to the WebSocket clients of each meeting.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	meetings   map[string]map[string]*Client // meetingID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *pubsub.Event
	done       chan struct{}
	mu         sync.RWMutex
	metrics    *metrics.FeedMetrics
}

// NewHub creates a hub. m may be nil.
func NewHub(m *metrics.FeedMetrics) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		meetings:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *pubsub.Event, 256),
		done:       make(chan struct{}),
		metrics:    m,
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	l := log.L()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			if _, ok := h.meetings[client.MeetingID]; !ok {
				h.meetings[client.MeetingID] = make(map[string]*Client)
			}
			h.meetings[client.MeetingID][client.ID] = client
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.Connections.Inc()
			}
			l.Debug().Str("client_id", client.ID).Str(log.FieldMeetingID, client.MeetingID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				if mc, ok := h.meetings[client.MeetingID]; ok {
					delete(mc, client.ID)
					if len(mc) == 0 {
						delete(h.meetings, client.MeetingID)
					}
				}
				delete(h.clients, client.ID)
				client.closeSend()
				if h.metrics != nil {
					h.metrics.Connections.Dec()
				}
			}
			h.mu.Unlock()
			l.Debug().Str("client_id", client.ID).Msg("client unregistered")

		case evt := <-h.broadcast:
			h.deliver(evt)
		}
	}
}

func (h *Hub) deliver(evt *pubsub.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldMeetingID, evt.MeetingID).Msg("failed to marshal feed event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.meetings[evt.MeetingID] {
		if !client.Wants(evt.Table) {
			continue
		}
		if client.trySend(data) {
			if h.metrics != nil {
				h.metrics.EventsDelivered.WithLabelValues(evt.Table).Inc()
			}
			continue
		}
		go h.Unregister(client)
	}
}

// Register and Unregister are no-ops once Run has returned.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Dispatch queues an insert event for the clients of its meeting. Other
// event types are ignored.
func (h *Hub) Dispatch(evt *pubsub.Event) {
	if evt == nil || evt.Type != pubsub.EventInsert || evt.MeetingID == "" {
		return
	}
	select {
	case h.broadcast <- evt:
	case <-h.done:
	}
}

// MeetingClientCount returns the number of open feeds for a meeting.
func (h *Hub) MeetingClientCount(meetingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.meetings[meetingID])
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.closeSend()
		delete(h.clients, id)
	}
	h.meetings = make(map[string]map[string]*Client)
}
