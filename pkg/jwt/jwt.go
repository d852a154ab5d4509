package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
	ErrCannotSign   = errors.New("manager has no private key")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// Config configures a Manager. Services that only verify tokens set
// PublicKeyPath; the issuing service sets PrivateKeyPath. With neither
// set a throwaway key pair is generated, which only works in-process.
type Config struct {
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	AccessDuration  time.Duration `mapstructure:"access_duration"`
	RefreshDuration time.Duration `mapstructure:"refresh_duration"`
	Issuer          string        `mapstructure:"issuer"`
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

// Manager signs and validates RS256 tokens.
type Manager struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessDuration  time.Duration
	refreshDuration time.Duration
	issuer          string
	revoker         Revoker
}

// NewManager builds a Manager from cfg. revoker may be nil.
func NewManager(cfg Config, revoker Revoker) (*Manager, error) {
	m := &Manager{
		accessDuration:  cfg.AccessDuration,
		refreshDuration: cfg.RefreshDuration,
		issuer:          cfg.Issuer,
		revoker:         revoker,
	}
	if m.accessDuration <= 0 {
		m.accessDuration = 15 * time.Minute
	}
	if m.refreshDuration <= 0 {
		m.refreshDuration = 7 * 24 * time.Hour
	}

	switch {
	case cfg.PrivateKeyPath != "":
		data, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		m.privateKey = key
		m.publicKey = &key.PublicKey
	case cfg.PublicKeyPath != "":
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		m.publicKey = key
	default:
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, err
		}
		m.privateKey = key
		m.publicKey = &key.PublicKey
	}

	return m, nil
}

// GenerateTokenPair creates access and refresh tokens for a user.
func (m *Manager) GenerateTokenPair(userID, email, displayName string) (*TokenPair, error) {
	if m.privateKey == nil {
		return nil, ErrCannotSign
	}
	now := time.Now()

	access, err := m.sign(&Claims{
		RegisteredClaims: m.registered(userID, now, m.accessDuration),
		UserID:           userID,
		Email:            email,
		DisplayName:      displayName,
		Type:             TokenTypeAccess,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := m.sign(&Claims{
		RegisteredClaims: m.registered(userID, now, m.refreshDuration),
		UserID:           userID,
		Email:            email,
		DisplayName:      displayName,
		Type:             TokenTypeRefresh,
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(m.accessDuration).Unix(),
		RefreshExpiresAt: now.Add(m.refreshDuration).Unix(),
	}, nil
}

// ValidateToken validates a token and returns claims.
func (m *Manager) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return m.publicKey, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if m.revoker != nil && claims.ID != "" {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	return claims, nil
}

// Refresh exchanges a valid refresh token for a new pair and revokes the old one.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := m.ValidateToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if err := m.Revoke(ctx, claims); err != nil {
		return nil, err
	}
	return m.GenerateTokenPair(claims.UserID, claims.Email, claims.DisplayName)
}

// Revoke blocks a token until it would have expired anyway.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revoker == nil || claims.ExpiresAt == nil {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (m *Manager) registered(userID string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    m.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *Manager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.privateKey)
}
