package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/service"
	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setup(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db, &domain.MeetingModel{}))

	ids, err := idgen.New(idgen.Config{Strategy: idgen.StrategyNanoID})
	require.NoError(t, err)
	tokens, err := jwt.NewManager(jwt.Config{Issuer: "test", AccessDuration: time.Minute}, nil)
	require.NoError(t, err)
	pair, err := tokens.GenerateTokenPair("host-1", "host@example.com", "Host")
	require.NoError(t, err)

	svc := service.NewMeetingService(repository.NewGormMeetingRepository(db), ids, nil, 0, nil)
	r := gin.New()
	NewHandler(svc, middleware.NewAuthMiddleware(tokens)).RegisterRoutes(r)
	return r, pair.AccessToken
}

func do(r http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestStartThenFetch(t *testing.T) {
	r, token := setup(t)

	w, env := do(r, http.MethodPost, "/api/v1/meetings", token, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var started domain.Meeting
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Len(t, started.MeetingID, 10)
	assert.Equal(t, "host-1", started.HostID)

	w, env = do(r, http.MethodGet, "/api/v1/meetings/"+started.MeetingID, token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched domain.Meeting
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, started.ID, fetched.ID)

	w, env = do(r, http.MethodGet, "/api/v1/meetings", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list domain.ListMeetingsResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
}

func TestStartWithTitle(t *testing.T) {
	r, token := setup(t)

	w, env := do(r, http.MethodPost, "/api/v1/meetings", token, `{"title":"Retro"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var started domain.Meeting
	require.NoError(t, json.Unmarshal(env.Data, &started))
	require.NotNil(t, started.Title)
	assert.Equal(t, "Retro", *started.Title)

	w, _ = do(r, http.MethodPost, "/api/v1/meetings", token, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchUnknownMeeting(t *testing.T) {
	r, token := setup(t)

	w, env := do(r, http.MethodGet, "/api/v1/meetings/nope000000", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.False(t, env.Success)
}

func TestMeetingRoutesRequireSession(t *testing.T) {
	r, _ := setup(t)

	w, _ := do(r, http.MethodPost, "/api/v1/meetings", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = do(r, http.MethodGet, "/api/v1/meetings/abc", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
