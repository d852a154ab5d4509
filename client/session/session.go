// Package session holds the signed-in user's tokens and gates pages that
// need them.
package session

import (
	"context"
	"errors"
	"time"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/auth/login"

var (
	ErrNoSession = errors.New("no session")
	ErrExpired   = errors.New("session expired")
)

type User struct {
	ID          string `json:"id" yaml:"id"`
	Email       string `json:"email" yaml:"email"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// Session is a token pair plus the user it was issued to.
type Session struct {
	AccessToken      string    `json:"access_token" yaml:"access_token"`
	RefreshToken     string    `json:"refresh_token" yaml:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at" yaml:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at" yaml:"refresh_expires_at"`
	User             User      `json:"user" yaml:"user"`
}

// Valid reports whether the access token is present and unexpired at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" || s.User.ID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Refreshable reports whether the refresh token can still be exchanged.
func (s *Session) Refreshable(now time.Time) bool {
	if s == nil || s.RefreshToken == "" {
		return false
	}
	return s.RefreshExpiresAt.IsZero() || now.Before(s.RefreshExpiresAt)
}

// Store persists a session between runs.
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// Source yields the current session. Implementations return ErrNoSession
// or ErrExpired when nobody is signed in.
type Source interface {
	Current(ctx context.Context) (*Session, error)
}
