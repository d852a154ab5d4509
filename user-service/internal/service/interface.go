package service

import (
	"context"

	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/domain"
)

// UserService defines the interface for account and session logic.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error)
	// Logout revokes the access token in claims and, when given, the refresh token.
	Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*domain.UserResponse, error)
	UpdateUser(ctx context.Context, userID string, req *domain.UpdateUserRequest) (*domain.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *domain.ChangePasswordRequest) error
}

// TokenIssuer is satisfied by *jwt.Manager configured with a private key.
type TokenIssuer interface {
	GenerateTokenPair(userID, email, displayName string) (*jwt.TokenPair, error)
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
	Revoke(ctx context.Context, claims *jwt.Claims) error
}
