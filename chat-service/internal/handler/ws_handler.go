package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/audit"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/hub"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub   *hub.Hub
	wsCfg hub.Config
}

func NewWSHandler(h *hub.Hub, wsCfg hub.Config) *WSHandler {
	return &WSHandler{
		hub:   h,
		wsCfg: wsCfg,
	}
}

// parseTables reads ?tables=a,b. An empty value selects every feed table.
func parseTables(raw string) ([]string, bool) {
	if raw == "" {
		return domain.FeedTables, true
	}
	var tables []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		known := false
		for _, ft := range domain.FeedTables {
			if t == ft {
				known = true
				break
			}
		}
		if !known {
			return nil, false
		}
		tables = append(tables, t)
	}
	return tables, true
}

// HandleFeed upgrades to a WebSocket carrying one meeting's inserts.
func (h *WSHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := log.Ctx(ctx)

	meetingID := mux.Vars(r)["meetingId"]
	tables, ok := parseTables(r.URL.Query().Get("tables"))
	if !ok {
		http.Error(w, "unknown table in tables filter", http.StatusBadRequest)
		return
	}
	claims, _ := middleware.ClaimsFromContext(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), claims.UserID, meetingID, tables, h.hub, conn, h.wsCfg)
	h.hub.Register(client)
	audit.LogWithDetail(ctx, audit.ActionFeedOpen, claims.UserID, meetingID, strings.Join(tables, ","), "feed opened")

	client.SendMessage(&domain.SubscribedMessage{
		Type:      domain.MsgTypeSubscribed,
		MeetingID: meetingID,
		Tables:    tables,
	})

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	switch base.Type {
	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})
	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

func (h *WSHandler) RegisterRoutes(r *mux.Router, auth *middleware.AuthMiddleware) {
	r.Handle("/ws/meetings/{meetingId}", auth.RequireAuthHTTP(http.HandlerFunc(h.HandleFeed))).Methods(http.MethodGet)
}
