package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/service"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/pkg/response"
)

// HTTPHandler serves the chat REST API.
type HTTPHandler struct {
	chatService service.ChatService
}

func NewHTTPHandler(chatService service.ChatService) *HTTPHandler {
	return &HTTPHandler{chatService: chatService}
}

func (h *HTTPHandler) RegisterRoutes(r *mux.Router, auth *middleware.AuthMiddleware) {
	const path = "/api/v1/meetings/{meetingId}/messages"
	r.Handle(path, auth.RequireAuthHTTP(http.HandlerFunc(h.SendMessage))).Methods(http.MethodPost)
	r.Handle(path, auth.RequireAuthHTTP(http.HandlerFunc(h.ListMessages))).Methods(http.MethodGet)
}

func (h *HTTPHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := log.Ctx(ctx)
	claims, _ := middleware.ClaimsFromContext(ctx)

	var req domain.SendMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	msg, err := h.chatService.SendMessage(ctx, mux.Vars(r)["meetingId"], claims.UserID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrMessageTooLong), errors.Is(err, service.ErrMissingMeeting):
			writeError(w, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			l.Error().Err(err).Msg("failed to send message")
			writeError(w, http.StatusInternalServerError, response.CodeInternal, "failed to send message")
		}
		return
	}

	writeJSON(w, http.StatusCreated, response.Response{Success: true, Data: msg})
}

func (h *HTTPHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := log.Ctx(ctx)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.chatService.ListMessages(ctx, mux.Vars(r)["meetingId"], limit)
	if err != nil {
		l.Error().Err(err).Msg("failed to list messages")
		writeError(w, http.StatusInternalServerError, response.CodeInternal, "failed to list messages")
		return
	}

	writeJSON(w, http.StatusOK, response.Response{Success: true, Data: result})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, response.Response{Error: &response.ErrorInfo{Code: code, Message: message}})
}
