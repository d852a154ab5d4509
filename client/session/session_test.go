package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/gavinvoiceai/meetflow-saas/client/api"
)

type memStore struct {
	mu sync.Mutex
	s  *Session
}

func (m *memStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, ErrNoSession
	}
	cp := *m.s
	return &cp, nil
}

func (m *memStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

type staticSource struct {
	s   *Session
	err error
}

func (s staticSource) Current(context.Context) (*Session, error) { return s.s, s.err }

func TestGateRedirectsWithoutSession(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	d := NewGate(staticSource{err: ErrNoSession}).Check(context.Background())
	assert.False(t, d.Allowed())
	assert.Equal(t, LoginPath, d.Redirect)

	expired := &Session{AccessToken: "a", User: User{ID: "u"}, ExpiresAt: now.Add(-time.Second)}
	d = NewGate(staticSource{s: expired}).WithClock(func() time.Time { return now }).Check(context.Background())
	assert.Equal(t, LoginPath, d.Redirect)

	d = NewGate(staticSource{}).Check(context.Background())
	assert.Equal(t, LoginPath, d.Redirect)
}

func TestGateAdmitsValidSession(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{AccessToken: "a", User: User{ID: "u"}, ExpiresAt: now.Add(time.Minute)}

	d := NewGate(staticSource{s: s}).WithClock(func() time.Time { return now }).Check(context.Background())
	require.True(t, d.Allowed())
	assert.Empty(t, d.Redirect)
	assert.Equal(t, "u", d.Session.User.ID)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.yaml"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	in := &Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Unix(1700000000, 0).UTC(), User: User{ID: "u", Email: "e@example.com"}}
	require.NoError(t, store.Save(in))
	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt))
	assert.Equal(t, in.User, out.User)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(&Session{AccessToken: "a", User: User{ID: "u"}}))
	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "u", out.User.ID)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

type pathHits struct {
	mu sync.Mutex
	n  map[string]int
}

func (h *pathHits) add(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.n == nil {
		h.n = map[string]int{}
	}
	h.n[path]++
}

func (h *pathHits) get(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n[path]
}

func authServer(t *testing.T, hits *pathHits) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.add(r.URL.Path)

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/api/v1/auth/login":
			if body["password"] != "secret1" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"invalid email or password"}}`))
				return
			}
			writeAuth(w, "access-1", "refresh-1", time.Now().Add(time.Hour))
		case "/api/v1/auth/refresh":
			if body["refresh_token"] != "refresh-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeAuth(w, "access-2", "refresh-2", time.Now().Add(time.Hour))
		case "/api/v1/auth/logout":
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	}))
}

func writeAuth(w http.ResponseWriter, access, refresh string, exp time.Time) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"user":               map[string]string{"id": "user-1", "email": "ada@example.com"},
			"access_token":       access,
			"refresh_token":      refresh,
			"expires_at":         exp.Unix(),
			"refresh_expires_at": exp.Add(24 * time.Hour).Unix(),
		},
	})
}

func TestManagerLoginAndLogout(t *testing.T) {
	hits := &pathHits{}
	srv := authServer(t, hits)
	defer srv.Close()

	store := &memStore{}
	m := NewManager(api.New(srv.URL), store)
	ctx := context.Background()

	_, err := m.Login(ctx, "ada@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))

	s, err := m.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.User.ID)

	id, err := m.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, 1, hits.get("/api/v1/auth/logout"))
	_, err = m.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManagerRefreshesExpiringToken(t *testing.T) {
	hits := &pathHits{}
	srv := authServer(t, hits)
	defer srv.Close()

	store := &memStore{s: &Session{
		AccessToken:      "access-0",
		RefreshToken:     "refresh-1",
		ExpiresAt:        time.Now().Add(5 * time.Second),
		RefreshExpiresAt: time.Now().Add(time.Hour),
		User:             User{ID: "user-1"},
	}}
	m := NewManager(api.New(srv.URL), store)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, 1, hits.get("/api/v1/auth/refresh"))
	assert.Equal(t, "refresh-2", store.s.RefreshToken)
}

func TestManagerExpiredRefreshClearsSession(t *testing.T) {
	hits := &pathHits{}
	srv := authServer(t, hits)
	defer srv.Close()

	store := &memStore{s: &Session{
		AccessToken:      "access-0",
		RefreshToken:     "stale",
		ExpiresAt:        time.Now().Add(-time.Minute),
		RefreshExpiresAt: time.Now().Add(time.Hour),
		User:             User{ID: "user-1"},
	}}
	m := NewManager(api.New(srv.URL), store)

	_, err := m.Current(context.Background())
	assert.ErrorIs(t, err, ErrExpired)
	assert.Nil(t, store.s)
}
