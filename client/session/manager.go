package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gavinvoiceai/meetflow-saas/client/api"
)

// refreshSkew renews the access token slightly before it expires.
const refreshSkew = 30 * time.Second

type authResponse struct {
	User             User   `json:"user"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresAt        int64  `json:"expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

func (r *authResponse) session() *Session {
	return &Session{
		AccessToken:      r.AccessToken,
		RefreshToken:     r.RefreshToken,
		ExpiresAt:        time.Unix(r.ExpiresAt, 0),
		RefreshExpiresAt: time.Unix(r.RefreshExpiresAt, 0),
		User:             r.User,
	}
}

// Manager signs in against the user service and keeps the stored session
// fresh. It is a Source, an api.TokenSource and a capture.UserSource.
type Manager struct {
	users *api.Client
	store Store
	now   func() time.Time
	mu    sync.Mutex
}

func NewManager(users *api.Client, store Store) *Manager {
	return &Manager{users: users, store: store, now: time.Now}
}

func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp authResponse
	err := m.users.Do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return m.save(resp.session())
}

func (m *Manager) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	var resp authResponse
	err := m.users.Do(ctx, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return m.save(resp.session())
}

// Logout revokes the tokens server-side and always clears the local copy.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}

	var revokeErr error
	if s.Valid(m.now()) {
		authed := api.New(m.users.BaseURL(), api.WithTokenSource(api.StaticToken(s.AccessToken)))
		revokeErr = authed.Do(ctx, http.MethodPost, "/api/v1/auth/logout", map[string]string{"refresh_token": s.RefreshToken}, nil)
	}
	if err := m.store.Clear(); err != nil {
		return err
	}
	return revokeErr
}

// Current returns a valid session, refreshing it when the access token is
// about to expire.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	now := m.now()
	if s.Valid(now.Add(refreshSkew)) {
		return s, nil
	}
	if !s.Refreshable(now) {
		if s.Valid(now) {
			return s, nil
		}
		return nil, ErrExpired
	}

	var resp authResponse
	if err := m.users.Do(ctx, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": s.RefreshToken}, &resp); err != nil {
		if api.StatusCode(err) == http.StatusUnauthorized {
			_ = m.store.Clear()
			return nil, ErrExpired
		}
		if s.Valid(now) {
			return s, nil
		}
		return nil, err
	}
	fresh := resp.session()
	if err := m.store.Save(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (m *Manager) Token(ctx context.Context) (string, error) {
	s, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

// UserID returns the signed-in user's ID, read fresh on every call.
func (m *Manager) UserID(ctx context.Context) (string, error) {
	s, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	return s.User.ID, nil
}

func (m *Manager) save(s *Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}
