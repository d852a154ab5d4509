package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/cache"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/repository"
)

type fixture struct {
	svc    UserService
	tokens *jwt.Manager
	repo   *repository.GormUserRepository
	redis  *miniredis.Miniredis
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db, &domain.UserModel{}))

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := jwt.NewManager(jwt.Config{Issuer: "test", AccessDuration: time.Minute}, jwt.NewRedisRevoker(client))
	require.NoError(t, err)

	repo := repository.NewGormUserRepository(db)
	svc := NewUserServiceWithCost(repo, tokens, cache.NewRedisUserCache(client, "test"), time.Minute, bcrypt.MinCost)
	return &fixture{svc: svc, tokens: tokens, repo: repo, redis: srv}
}

func register(t *testing.T, f *fixture) *domain.AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &domain.RegisterRequest{Email: " Ada@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	return resp
}

func TestRegisterIssuesTokens(t *testing.T) {
	f := setup(t)
	resp := register(t, f)

	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "ada", resp.User.DisplayName)

	claims, err := f.tokens.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, jwt.TokenTypeAccess, claims.Type)

	_, err = f.svc.Register(context.Background(), &domain.RegisterRequest{Email: "ada@example.com", Password: "other12"})
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestLogin(t *testing.T) {
	f := setup(t)
	reg := register(t, f)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, &domain.LoginRequest{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resp.User.ID)

	_, err = f.svc.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := setup(t)
	reg := register(t, f)
	ctx := context.Background()

	resp, err := f.svc.RefreshToken(ctx, &domain.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resp.User.ID)
	assert.NotEqual(t, reg.RefreshToken, resp.RefreshToken)

	_, err = f.svc.RefreshToken(ctx, &domain.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.RefreshToken(ctx, &domain.RefreshTokenRequest{RefreshToken: reg.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	f := setup(t)
	reg := register(t, f)
	ctx := context.Background()

	claims, err := f.tokens.ValidateToken(ctx, reg.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, claims, reg.RefreshToken))

	_, err = f.tokens.ValidateToken(ctx, reg.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrRevokedToken)
	_, err = f.tokens.ValidateToken(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, jwt.ErrRevokedToken)
}

func TestGetUserUsesCache(t *testing.T) {
	f := setup(t)
	reg := register(t, f)
	ctx := context.Background()

	got, err := f.svc.GetUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User.Email, got.Email)
	assert.True(t, f.redis.Exists("test:user:"+reg.User.ID))

	name := "Countess"
	_, err = f.svc.UpdateUser(ctx, reg.User.ID, &domain.UpdateUserRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.False(t, f.redis.Exists("test:user:"+reg.User.ID))

	got, err = f.svc.GetUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Countess", got.DisplayName)

	_, err = f.svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	f := setup(t)
	reg := register(t, f)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, reg.User.ID, &domain.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, reg.User.ID, &domain.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass"}))
	_, err = f.svc.Login(ctx, &domain.LoginRequest{Email: "ada@example.com", Password: "newpass"})
	assert.NoError(t, err)
}
