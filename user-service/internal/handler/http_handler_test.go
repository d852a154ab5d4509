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
	"golang.org/x/crypto/bcrypt"

	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db, &domain.UserModel{}))

	tokens, err := jwt.NewManager(jwt.Config{Issuer: "test", AccessDuration: time.Minute}, jwt.NewMemoryRevoker())
	require.NoError(t, err)

	svc := service.NewUserServiceWithCost(repository.NewGormUserRepository(db), tokens, nil, 0, bcrypt.MinCost)
	r := gin.New()
	NewHandler(svc, middleware.NewAuthMiddleware(tokens)).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
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

func TestAuthFlow(t *testing.T) {
	r := setup(t)

	w, env := do(r, http.MethodPost, "/api/v1/auth/register", "", `{"email":"ada@example.com","password":"secret1","display_name":"Ada"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var reg domain.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	assert.Equal(t, "Ada", reg.User.DisplayName)

	w, _ = do(r, http.MethodPost, "/api/v1/auth/register", "", `{"email":"ada@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(r, http.MethodPost, "/api/v1/auth/login", "", `{"email":"ada@example.com","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = do(r, http.MethodPost, "/api/v1/auth/login", "", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login domain.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))

	w, env = do(r, http.MethodGet, "/api/v1/auth/me", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	var me domain.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, reg.User.ID, me.ID)

	w, _ = do(r, http.MethodPost, "/api/v1/auth/logout", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(r, http.MethodGet, "/api/v1/auth/me", login.AccessToken, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "token has been revoked", env.Error.Message)
}

func TestRegisterValidation(t *testing.T) {
	r := setup(t)

	w, _ := do(r, http.MethodPost, "/api/v1/auth/register", "", `{"email":"not-an-email","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(r, http.MethodPost, "/api/v1/auth/register", "", `{"email":"a@example.com","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	r := setup(t)
	_, env := do(r, http.MethodPost, "/api/v1/auth/register", "", `{"email":"ada@example.com","password":"secret1"}`)
	var reg domain.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &reg))

	w, _ := do(r, http.MethodPost, "/api/v1/auth/refresh", "", `{"refresh_token":"`+reg.RefreshToken+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, http.MethodPost, "/api/v1/auth/refresh", "", `{"refresh_token":"garbage"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	r := setup(t)
	w, _ := do(r, http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
