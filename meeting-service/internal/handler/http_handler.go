package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/service"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/pkg/response"
)

// Handler handles HTTP requests for meeting service.
type Handler struct {
	meetingService service.MeetingService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(meetingService service.MeetingService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		meetingService: meetingService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes. Every meeting route needs a session.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	meetings := r.Group("/api/v1/meetings", h.authMiddleware.RequireAuth())
	{
		meetings.POST("", h.StartMeeting)
		meetings.GET("", h.ListMyMeetings)
		meetings.GET("/:meetingId", h.FetchMeeting)
	}
}

// StartMeeting creates a meeting hosted by the caller.
func (h *Handler) StartMeeting(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	hostID := middleware.GetUserID(c)

	var req domain.StartMeetingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			l.Warn().Err(err).Msg("failed to bind start meeting request")
			response.BadRequest(c, err.Error())
			return
		}
	}

	meeting, err := h.meetingService.StartMeeting(ctx, hostID, &req)
	if err != nil {
		if errors.Is(err, service.ErrMeetingIDTaken) {
			response.Conflict(c, "meeting id collision, please try again")
			return
		}
		l.Error().Err(err).Msg("failed to start meeting")
		response.InternalError(c, "failed to start meeting")
		return
	}

	response.Created(c, meeting)
}

// FetchMeeting looks a meeting up by its public id.
func (h *Handler) FetchMeeting(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	meetingID := c.Param("meetingId")

	meeting, err := h.meetingService.FetchMeeting(ctx, meetingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMeetingNotFound):
			response.NotFound(c, "meeting not found")
		case errors.Is(err, service.ErrInvalidMeetingID):
			response.BadRequest(c, "invalid meeting id")
		default:
			l.Error().Err(err).Msg("failed to fetch meeting")
			response.InternalError(c, "failed to fetch meeting")
		}
		return
	}

	response.Success(c, meeting)
}

// ListMyMeetings lists meetings hosted by the caller.
func (h *Handler) ListMyMeetings(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	result, err := h.meetingService.ListMyMeetings(ctx, middleware.GetUserID(c))
	if err != nil {
		l.Error().Err(err).Msg("failed to list meetings")
		response.InternalError(c, "failed to list meetings")
		return
	}

	response.Success(c, result)
}
