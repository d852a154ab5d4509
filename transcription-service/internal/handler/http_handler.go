package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/pkg/response"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/service"
)

// FunctionPath is where browser clients invoke the transcription function.
const FunctionPath = "/functions/v1/realtime-transcription"

// MaxTranscribeBodyBytes caps a function invocation. A three second slice
// is tens of kilobytes once base64 encoded.
const MaxTranscribeBodyBytes = 1 << 20

// Handler handles HTTP requests for transcription service.
type Handler struct {
	transcriptionService service.TranscriptionService
	authMiddleware       *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(transcriptionService service.TranscriptionService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		transcriptionService: transcriptionService,
		authMiddleware:       authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	cors := middleware.CORS(middleware.FunctionAllowedHeaders...)
	preflight := func(c *gin.Context) {}

	r.POST(FunctionPath, cors, h.Transcribe)
	r.OPTIONS(FunctionPath, cors, preflight)

	api := r.Group("/api/v1")
	{
		api.POST("/transcriptions", cors, h.Transcribe)
		api.OPTIONS("/transcriptions", cors, preflight)

		meetings := api.Group("/meetings/:meetingId/transcriptions", h.authMiddleware.RequireAuth())
		meetings.GET("", h.History)
		meetings.GET("/search", h.Search)
		meetings.GET("/:id/audio", h.Audio)
		meetings.GET("/:id/audio/url", h.AudioURL)
		meetings.DELETE("/:id/audio", h.DeleteAudio)
	}
}

// Transcribe answers with the function contract: {transcription} on
// success, {error} with status 500 on any failure.
func (h *Handler) Transcribe(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxTranscribeBodyBytes)

	var req domain.TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind transcription request")
		status := http.StatusInternalServerError
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, domain.ErrorResponse{Error: err.Error()})
		return
	}

	text, err := h.transcriptionService.Transcribe(ctx, &req)
	if err != nil {
		l.Error().Err(err).Str(log.FieldMeetingID, req.MeetingID).Str(log.FieldUserID, req.UserID).Msg("transcription failed")
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, domain.TranscribeResponse{Transcription: text})
}

// History lists a meeting's transcriptions.
func (h *Handler) History(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	limit, _ := strconv.Atoi(c.Query("limit"))
	result, err := h.transcriptionService.History(ctx, c.Param("meetingId"), limit)
	if err != nil {
		l.Error().Err(err).Msg("failed to list transcriptions")
		response.InternalError(c, "failed to list transcriptions")
		return
	}

	response.Success(c, result)
}

// Search runs a full-text query over one meeting's transcripts.
func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid search request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.transcriptionService.Search(ctx, c.Param("meetingId"), &req)
	if err != nil {
		if errors.Is(err, service.ErrSearchNotAvailable) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		l.Error().Err(err).Str("query", req.Query).Msg("search failed")
		response.InternalError(c, "search failed")
		return
	}

	response.Success(c, result)
}

// Audio streams a transcription's archived slice.
func (h *Handler) Audio(c *gin.Context) {
	ctx := c.Request.Context()

	rc, err := h.transcriptionService.OpenAudio(ctx, c.Param("meetingId"), c.Param("id"))
	if err != nil {
		h.audioError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, service.AudioContentType, rc, nil)
}

// AudioURL returns a time-limited link to the archived slice. Archives
// without their own URLs link back to Audio.
func (h *Handler) AudioURL(c *gin.Context) {
	ctx := c.Request.Context()

	res, err := h.transcriptionService.AudioURL(ctx, c.Param("meetingId"), c.Param("id"))
	if err != nil {
		h.audioError(c, err)
		return
	}
	if !strings.Contains(res.URL, "://") {
		res.URL = strings.TrimSuffix(c.Request.URL.Path, "/url")
	}

	response.Success(c, res)
}

func (h *Handler) DeleteAudio(c *gin.Context) {
	ctx := c.Request.Context()

	err := h.transcriptionService.DeleteAudio(ctx, c.Param("meetingId"), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		h.audioError(c, err)
		return
	}

	response.NoContent(c)
}

func (h *Handler) audioError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrArchiveNotAvailable):
		response.ServiceUnavailable(c, err.Error())
	case errors.Is(err, service.ErrAudioNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotSpeaker):
		response.Forbidden(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldRecordID, c.Param("id")).Msg("audio archive request failed")
		response.InternalError(c, "audio archive request failed")
	}
}
