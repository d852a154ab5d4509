package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/web-service/internal/session"
)

// backend fakes the user, meeting and chat services behind one server.
type backend struct {
	tokens    *jwt.Manager
	refreshes atomic.Int32
	logouts   atomic.Int32
	started   atomic.Int32
	sent      atomic.Value
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"success": status < 400}
	if status < 400 {
		body["data"] = data
	} else {
		body["error"] = map[string]string{"code": "ERR", "message": data.(string)}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (b *backend) authResponse(w http.ResponseWriter, status int) {
	pair, err := b.tokens.GenerateTokenPair("u1", "ada@example.com", "Ada")
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeEnvelope(w, status, map[string]interface{}{
		"user":               map[string]string{"id": "u1", "email": "ada@example.com", "display_name": "Ada"},
		"access_token":       pair.AccessToken,
		"refresh_token":      pair.RefreshToken,
		"expires_at":         pair.AccessExpiresAt,
		"refresh_expires_at": pair.RefreshExpiresAt,
	})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	meeting := map[string]interface{}{"meeting_id": "abc123", "title": "Standup", "status": "active"}

	switch {
	case r.URL.Path == "/api/v1/auth/login":
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		b.authResponse(w, http.StatusOK)
	case r.URL.Path == "/api/v1/auth/register":
		b.authResponse(w, http.StatusCreated)
	case r.URL.Path == "/api/v1/auth/refresh":
		b.refreshes.Add(1)
		b.authResponse(w, http.StatusOK)
	case r.URL.Path == "/api/v1/auth/logout":
		b.logouts.Add(1)
		writeEnvelope(w, http.StatusOK, nil)
	case r.Header.Get("Authorization") == "":
		writeEnvelope(w, http.StatusUnauthorized, "missing authorization header")
	case r.URL.Path == "/api/v1/meetings" && r.Method == http.MethodGet:
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"meetings": []interface{}{meeting}, "total": 1})
	case r.URL.Path == "/api/v1/meetings" && r.Method == http.MethodPost:
		if b.started.Add(1) > 1 {
			writeEnvelope(w, http.StatusConflict, "meeting id collision, please try again")
			return
		}
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{"meeting_id": "new4567890", "status": "active"})
	case r.URL.Path == "/api/v1/meetings/abc123":
		writeEnvelope(w, http.StatusOK, meeting)
	case r.URL.Path == "/api/v1/meetings/abc123/messages" && r.Method == http.MethodPost:
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.sent.Store(req["content"])
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{"id": "2", "meeting_id": "abc123", "user_id": "u1", "content": req["content"]})
	case r.URL.Path == "/api/v1/meetings/abc123/messages":
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"messages": []interface{}{map[string]interface{}{"id": "1", "meeting_id": "abc123", "content": "hello there", "created_at": time.Now()}},
			"total":    1,
		})
	default:
		writeEnvelope(w, http.StatusNotFound, "meeting not found")
	}
}

type fixture struct {
	r       *gin.Engine
	backend *backend
	tokens  *jwt.Manager
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := jwt.NewManager(jwt.Config{Issuer: "test", AccessDuration: time.Hour}, nil)
	require.NoError(t, err)
	b := &backend{tokens: tokens}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	h := NewHandler(Upstreams{
		UserURL:      srv.URL,
		MeetingURL:   srv.URL,
		ChatURL:      srv.URL,
		FeedURL:      "http://feed.example",
		FunctionsURL: "http://functions.example/",
		Timeout:      5 * time.Second,
	}, tokens, session.CookieNames{Access: "meetflow_session", Refresh: "meetflow_refresh"})

	r := gin.New()
	r.SetHTMLTemplate(Templates())
	h.RegisterRoutes(r)
	return &fixture{r: r, backend: b, tokens: tokens}
}

func (f *fixture) login(t *testing.T) []*http.Cookie {
	t.Helper()
	pair, err := f.tokens.GenerateTokenPair("u1", "ada@example.com", "Ada")
	require.NoError(t, err)
	return []*http.Cookie{
		{Name: "meetflow_session", Value: pair.AccessToken},
		{Name: "meetflow_refresh", Value: pair.RefreshToken},
	}
}

func (f *fixture) do(method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func (f *fixture) doJSON(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRootRedirectsToDashboard(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestGatedRoutesRedirectWithoutSession(t *testing.T) {
	f := setup(t)
	for _, path := range []string{"/dashboard", "/meeting/abc123"} {
		w := f.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/auth/login", w.Header().Get("Location"), path)
	}

	w := f.do(http.MethodGet, "/dashboard", nil, []*http.Cookie{{Name: "meetflow_session", Value: "garbage"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestLoginPage(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodGet, "/auth/login", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/auth/login"`)

	w = f.do(http.MethodGet, "/auth/login?mode=signup", nil, nil)
	assert.Contains(t, w.Body.String(), "Create account")
}

func TestLoginSetsCookies(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodPost, "/auth/login", url.Values{"email": {"ada@example.com"}, "password": {"secret"}}, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	access := cookie(w, "meetflow_session")
	require.NotNil(t, access)
	assert.NotEmpty(t, access.Value)
	assert.True(t, access.HttpOnly)
	assert.Greater(t, access.MaxAge, 0)
	require.NotNil(t, cookie(w, "meetflow_refresh"))

	w = f.do(http.MethodGet, "/dashboard", nil, []*http.Cookie{access})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupSetsCookies(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodPost, "/auth/login", url.Values{
		"mode": {"signup"}, "email": {"new@example.com"}, "password": {"secret1"}, "display_name": {"New"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.NotNil(t, cookie(w, "meetflow_session"))
}

func TestLoginFailures(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodPost, "/auth/login", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")
	assert.Nil(t, cookie(w, "meetflow_session"))

	w = f.do(http.MethodPost, "/auth/login", url.Values{"email": {""}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardListsMeetings(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodGet, "/dashboard", nil, f.login(t))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Welcome, Ada")
	assert.Contains(t, body, `href="/meeting/abc123"`)
	assert.Contains(t, body, "Standup")
}

func TestStartMeetingRedirects(t *testing.T) {
	f := setup(t)
	cookies := f.login(t)

	w := f.do(http.MethodPost, "/dashboard/meetings", url.Values{"title": {"Retro"}}, cookies)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/meeting/new4567890", w.Header().Get("Location"))

	// A rejected insert stays on the dashboard with a notice.
	w = f.do(http.MethodPost, "/dashboard/meetings", url.Values{"title": {"Retro"}}, cookies)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to start meeting")
	assert.Equal(t, int32(2), f.backend.started.Load())
}

func TestStartMeetingRejectsBadTime(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodPost, "/dashboard/meetings", url.Values{"scheduled_start": {"tomorrow"}}, f.login(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.backend.started.Load())
}

func TestJoinMeeting(t *testing.T) {
	f := setup(t)
	cookies := f.login(t)

	w := f.do(http.MethodPost, "/dashboard/join", url.Values{"meeting_id": {" abc123 "}}, cookies)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/meeting/abc123", w.Header().Get("Location"))

	w = f.do(http.MethodPost, "/dashboard/join", url.Values{"meeting_id": {""}}, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeetingPage(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodGet, "/meeting/abc123", nil, f.login(t))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Standup")
	assert.Contains(t, body, "Video placeholder")
	assert.Contains(t, body, "hello there")
	assert.Contains(t, body, `data-feed-url="http://feed.example/ws/meetings/abc123"`)
	assert.Contains(t, body, `data-transcribe-url="http://functions.example/functions/v1/realtime-transcription"`)
	assert.Contains(t, body, `action="/meeting/abc123/messages"`)
	for _, id := range []string{"toggle-mic", "toggle-camera", "toggle-chat", "toggle-settings"} {
		assert.Contains(t, body, `id="`+id+`"`)
	}
}

func TestSendMessage(t *testing.T) {
	f := setup(t)
	cookies := f.login(t)

	w := f.doJSON(http.MethodPost, "/meeting/abc123/messages", `{"content":"hi all"}`, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hi all", f.backend.sent.Load())
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "hi all", msg["content"])

	w = f.do(http.MethodPost, "/meeting/abc123/messages", url.Values{"content": {"from a form"}}, cookies)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "from a form", f.backend.sent.Load())
}

func TestSendMessageFailures(t *testing.T) {
	f := setup(t)
	cookies := f.login(t)

	w := f.doJSON(http.MethodPost, "/meeting/abc123/messages", `{"content":"   "}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.doJSON(http.MethodPost, "/meeting/missing/messages", `{"content":"hello"}`, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.doJSON(http.MethodPost, "/meeting/abc123/messages", `{"content":"hello"}`, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestSessionInfo(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodGet, "/session", nil, f.login(t))
	require.Equal(t, http.StatusOK, w.Code)
	var s map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "u1", s["user_id"])
	assert.Equal(t, "Ada", s["display_name"])
}

func TestUnknownMeetingShowsNotice(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodGet, "/meeting/missing", nil, f.login(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Meeting unavailable")
}

func TestInvalidAccessTokenIsRefreshed(t *testing.T) {
	f := setup(t)
	pair, err := f.tokens.GenerateTokenPair("u1", "ada@example.com", "Ada")
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/dashboard", nil, []*http.Cookie{
		{Name: "meetflow_session", Value: "stale"},
		{Name: "meetflow_refresh", Value: pair.RefreshToken},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), f.backend.refreshes.Load())
	fresh := cookie(w, "meetflow_session")
	require.NotNil(t, fresh)
	assert.NotEqual(t, "stale", fresh.Value)
}

func TestLogoutClearsCookies(t *testing.T) {
	f := setup(t)
	w := f.do(http.MethodPost, "/auth/logout", nil, f.login(t))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
	assert.Equal(t, int32(1), f.backend.logouts.Load())

	access := cookie(w, "meetflow_session")
	require.NotNil(t, access)
	assert.Empty(t, access.Value)
	assert.Less(t, access.MaxAge, 0)
}
