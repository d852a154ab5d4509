package handler

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/gavinvoiceai/meetflow-saas/client/api"
	"github.com/gavinvoiceai/meetflow-saas/client/chat"
	"github.com/gavinvoiceai/meetflow-saas/client/feed"
	"github.com/gavinvoiceai/meetflow-saas/client/registry"
	clientsession "github.com/gavinvoiceai/meetflow-saas/client/session"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/web-service/internal/session"
)

const sessionKey = "session"

// Upstreams are the backend base URLs. FeedURL and FunctionsURL are used by
// the browser directly.
type Upstreams struct {
	UserURL      string
	MeetingURL   string
	ChatURL      string
	FeedURL      string
	FunctionsURL string
	Timeout      time.Duration
	ChatLimit    int
}

// Handler serves the browser pages.
type Handler struct {
	upstreams Upstreams
	validator session.TokenValidator
	cookies   session.CookieNames
	users     *api.Client
}

func NewHandler(upstreams Upstreams, validator session.TokenValidator, cookies session.CookieNames) *Handler {
	if upstreams.ChatLimit <= 0 {
		upstreams.ChatLimit = 50
	}
	return &Handler{
		upstreams: upstreams,
		validator: validator,
		cookies:   cookies,
		users:     api.New(upstreams.UserURL, api.WithTimeout(upstreams.Timeout)),
	}
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"clock": func(t time.Time) string { return t.Local().Format("15:04:05") },
	}).ParseFS(templateFS, "templates/*.html"))
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})

	auth := r.Group("/auth")
	{
		auth.GET("/login", h.LoginPage)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/logout", h.Logout)
	}

	gated := r.Group("", h.RequireSession())
	{
		gated.GET("/dashboard", h.Dashboard)
		gated.POST("/dashboard/meetings", h.StartMeeting)
		gated.POST("/dashboard/join", h.JoinMeeting)
		gated.GET("/meeting/:meetingId", h.Meeting)
		gated.POST("/meeting/:meetingId/messages", h.SendMessage)
		gated.GET("/session", h.SessionInfo)
	}
}

func (h *Handler) manager(c *gin.Context) *clientsession.Manager {
	return clientsession.NewManager(h.users, session.NewCookieStore(c, h.validator, h.cookies))
}

// RequireSession runs the session gate and redirects to the login page
// when it refuses.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := clientsession.NewGate(h.manager(c)).Check(c.Request.Context())
		if !d.Allowed() {
			c.Redirect(http.StatusFound, d.Redirect)
			c.Abort()
			return
		}
		c.Set(sessionKey, d.Session)
		ctx := log.WithField(c.Request.Context(), log.FieldUserID, d.Session.User.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func currentSession(c *gin.Context) *clientsession.Session {
	v, _ := c.Get(sessionKey)
	s, _ := v.(*clientsession.Session)
	return s
}

func (h *Handler) authed(c *gin.Context, baseURL string) *api.Client {
	return api.New(baseURL,
		api.WithTimeout(h.upstreams.Timeout),
		api.WithTokenSource(api.StaticToken(currentSession(c).AccessToken)),
	)
}

type loginPage struct {
	Mode  string
	Email string
	Error string
}

func (h *Handler) LoginPage(c *gin.Context) {
	mode := "signin"
	if c.Query("mode") == "signup" {
		mode = "signup"
	}
	c.HTML(http.StatusOK, "login.html", loginPage{Mode: mode})
}

// Login signs in (or signs up with mode=signup) and stores the session
// cookies.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	mode := c.PostForm("mode")
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	page := loginPage{Mode: mode, Email: email}
	if page.Mode != "signup" {
		page.Mode = "signin"
	}

	if email == "" || password == "" {
		page.Error = "Email and password are required"
		c.HTML(http.StatusBadRequest, "login.html", page)
		return
	}

	var err error
	mgr := h.manager(c)
	if page.Mode == "signup" {
		_, err = mgr.Register(ctx, email, password, strings.TrimSpace(c.PostForm("display_name")))
	} else {
		_, err = mgr.Login(ctx, email, password)
	}
	if err != nil {
		status := api.StatusCode(err)
		l.Warn().Err(err).Str("mode", page.Mode).Msg("authentication failed")
		page.Error = authMessage(err)
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		c.HTML(status, "login.html", page)
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

func authMessage(err error) string {
	var se *api.HTTPStatusError
	if errors.As(err, &se) && se.StatusCode < 500 && se.Message != "" {
		return se.Message
	}
	return "Authentication service unavailable"
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.manager(c).Logout(c.Request.Context()); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("remote logout failed")
	}
	c.Redirect(http.StatusFound, clientsession.LoginPath)
}

type dashboardPage struct {
	User     clientsession.User
	Meetings []registry.Meeting
	Notice   string
}

func (h *Handler) Dashboard(c *gin.Context) {
	h.renderDashboard(c, http.StatusOK, "")
}

func (h *Handler) renderDashboard(c *gin.Context, status int, notice string) {
	ctx := c.Request.Context()
	page := dashboardPage{User: currentSession(c).User, Notice: notice}

	meetings, err := registry.New(h.authed(c, h.upstreams.MeetingURL)).ListMeetings(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to list meetings")
		if page.Notice == "" {
			page.Notice = "Could not load your meetings"
		}
	}
	page.Meetings = meetings
	c.HTML(status, "dashboard.html", page)
}

func (h *Handler) StartMeeting(c *gin.Context) {
	ctx := c.Request.Context()

	var start *time.Time
	if raw := strings.TrimSpace(c.PostForm("scheduled_start")); raw != "" {
		t, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			h.renderDashboard(c, http.StatusBadRequest, "Invalid start time")
			return
		}
		start = &t
	}

	m, err := registry.New(h.authed(c, h.upstreams.MeetingURL)).StartMeeting(ctx, strings.TrimSpace(c.PostForm("title")), start)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to start meeting")
		h.renderDashboard(c, http.StatusBadGateway, "Failed to start meeting")
		return
	}

	c.Redirect(http.StatusFound, "/meeting/"+url.PathEscape(m.MeetingID))
}

func (h *Handler) JoinMeeting(c *gin.Context) {
	id := strings.TrimSpace(c.PostForm("meeting_id"))
	if id == "" {
		h.renderDashboard(c, http.StatusBadRequest, "Enter a meeting ID")
		return
	}
	c.Redirect(http.StatusFound, "/meeting/"+url.PathEscape(id))
}

type meetingPage struct {
	User          clientsession.User
	Meeting       *registry.Meeting
	Messages      []chat.Message
	ChatError     bool
	FeedURL       string
	FeedTables    string
	AccessToken   string
	TranscribeURL string
}

type noticePage struct {
	Title   string
	Message string
}

// Meeting loads the meeting and its chat history concurrently. A meeting
// that cannot be fetched gets the notice page; a chat failure only blanks
// the history.
func (h *Handler) Meeting(c *gin.Context) {
	ctx := c.Request.Context()
	meetingID := c.Param("meetingId")
	ctx = log.WithField(ctx, log.FieldMeetingID, meetingID)
	l := log.Ctx(ctx)

	var (
		meeting  *registry.Meeting
		messages []chat.Message
		chatErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meeting, err = registry.New(h.authed(c, h.upstreams.MeetingURL)).FetchMeeting(gctx, meetingID)
		return err
	})
	g.Go(func() error {
		messages, chatErr = chat.New(h.authed(c, h.upstreams.ChatURL)).History(gctx, meetingID, h.upstreams.ChatLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		l.Warn().Err(err).Msg("meeting unavailable")
		status := http.StatusBadGateway
		if api.StatusCode(err) == http.StatusNotFound || errors.Is(err, registry.ErrMissingMeetingID) {
			status = http.StatusNotFound
		}
		c.HTML(status, "notice.html", noticePage{
			Title:   "Meeting unavailable",
			Message: "This meeting could not be loaded. Check the ID and try again.",
		})
		return
	}
	if chatErr != nil && !errors.Is(chatErr, context.Canceled) {
		l.Warn().Err(chatErr).Msg("failed to load chat history")
	}

	c.HTML(http.StatusOK, "meeting.html", meetingPage{
		User:          currentSession(c).User,
		Meeting:       meeting,
		Messages:      messages,
		ChatError:     chatErr != nil,
		FeedURL:       strings.TrimRight(h.upstreams.FeedURL, "/") + "/ws/meetings/" + url.PathEscape(meeting.MeetingID),
		FeedTables:    feed.TableChatMessages + "," + feed.TableTranscriptions,
		AccessToken:   currentSession(c).AccessToken,
		TranscribeURL: strings.TrimRight(h.upstreams.FunctionsURL, "/") + transcribePath,
	})
}

const transcribePath = "/functions/v1/realtime-transcription"

type sendMessageRequest struct {
	Content string `json:"content" form:"content"`
}

// SendMessage posts a chat message on behalf of the meeting page. The
// message reaches the page again through the feed.
func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	meetingID := c.Param("meetingId")
	l := log.Ctx(ctx)

	var req sendMessageRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		return
	}

	msg, err := chat.New(h.authed(c, h.upstreams.ChatURL)).Send(ctx, meetingID, req.Content)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldMeetingID, meetingID).Msg("failed to send chat message")
		status := api.StatusCode(err)
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "message could not be sent"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// SessionInfo reports the signed-in user. The meeting page reads it before
// each audio submission.
func (h *Handler) SessionInfo(c *gin.Context) {
	s := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"user_id": s.User.ID, "display_name": s.User.DisplayName})
}
