package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/audit"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/cache"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type userServiceImpl struct {
	repo     repository.UserRepository
	tokens   TokenIssuer
	cache    cache.UserCache
	cacheTTL time.Duration
	cost     int
}

// NewUserService creates a user service. userCache may be nil.
func NewUserService(repo repository.UserRepository, tokens TokenIssuer, userCache cache.UserCache, cacheTTL time.Duration) UserService {
	return &userServiceImpl{
		repo:     repo,
		tokens:   tokens,
		cache:    userCache,
		cacheTTL: cacheTTL,
		cost:     bcrypt.DefaultCost,
	}
}

// NewUserServiceWithCost is NewUserService with a custom bcrypt cost.
func NewUserServiceWithCost(repo repository.UserRepository, tokens TokenIssuer, userCache cache.UserCache, cacheTTL time.Duration, cost int) UserService {
	s := NewUserService(repo, tokens, userCache, cacheTTL).(*userServiceImpl)
	s.cost = cost
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	email := normalizeEmail(req.Email)
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrEmailExists) {
			l.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	resp, err := s.issue(user)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens after register")
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")
	return resp, nil
}

func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", email, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, email, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(user)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens after login")
		return nil, err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")
	return resp, nil
}

func (s *userServiceImpl) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	pair, err := s.tokens.Refresh(ctx, req.RefreshToken)
	if err != nil {
		l.Warn().Err(err).Msg("failed to refresh token")
		return nil, ErrInvalidCredentials
	}

	claims, err := s.tokens.ValidateToken(ctx, pair.AccessToken)
	if err != nil {
		l.Warn().Err(err).Msg("refreshed token validation failed")
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("failed to get user after token refresh")
		return nil, err
	}

	audit.Log(ctx, audit.ActionRefreshToken, user.ID, "token refreshed")
	return authResponse(user, pair), nil
}

func (s *userServiceImpl) Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	l := log.Ctx(ctx)

	if err := s.tokens.Revoke(ctx, claims); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("failed to revoke access token")
		return err
	}

	// A refresh token that is already invalid needs no revocation.
	if refreshToken != "" {
		if rc, err := s.tokens.ValidateToken(ctx, refreshToken); err == nil && rc.UserID == claims.UserID && rc.Type == jwt.TokenTypeRefresh {
			if err := s.tokens.Revoke(ctx, rc); err != nil {
				l.Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("failed to revoke refresh token")
				return err
			}
		}
	}

	audit.Log(ctx, audit.ActionLogout, claims.UserID, "user logged out")
	return nil
}

// GetUser reads through the profile cache when one is configured.
func (s *userServiceImpl) GetUser(ctx context.Context, userID string) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("user cache read failed")
		}
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get user")
		return nil, err
	}

	resp := user.ToResponse()
	if s.cache != nil {
		if err := s.cache.Set(ctx, &resp, s.cacheTTL); err != nil {
			l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("user cache write failed")
		}
	}
	return &resp, nil
}

func (s *userServiceImpl) UpdateUser(ctx context.Context, userID string, req *domain.UpdateUserRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get user for update")
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to update user")
		return nil, err
	}
	s.invalidate(ctx, userID)

	audit.Log(ctx, audit.ActionUpdateProfile, userID, "profile updated")

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userServiceImpl) ChangePassword(ctx context.Context, userID string, req *domain.ChangePasswordRequest) error {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get user for password change")
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash new password")
		return err
	}
	user.PasswordHash = string(hashedPassword)

	if err := s.repo.Update(ctx, user); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to update password")
		return err
	}

	audit.Log(ctx, audit.ActionChangePassword, userID, "password changed")
	return nil
}

func (s *userServiceImpl) issue(user *domain.User) (*domain.AuthResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Email, user.DisplayName)
	if err != nil {
		return nil, err
	}
	return authResponse(user, pair), nil
}

func (s *userServiceImpl) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("user cache invalidation failed")
	}
}

func authResponse(user *domain.User, pair *jwt.TokenPair) *domain.AuthResponse {
	return &domain.AuthResponse{
		User:             user.ToResponse(),
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		ExpiresAt:        pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
