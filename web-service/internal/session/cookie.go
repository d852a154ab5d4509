// Package session keeps the browser session in cookies and exposes it as
// a client session store.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	clientsession "github.com/gavinvoiceai/meetflow-saas/client/session"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
)

// TokenValidator is satisfied by *jwt.Manager.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type CookieNames struct {
	Access  string
	Refresh string
	Secure  bool
}

// CookieStore is a per-request session store over the access and refresh
// cookies. The access token is verified locally on every Load; an invalid
// one is dropped so the manager can refresh it.
type CookieStore struct {
	c         *gin.Context
	validator TokenValidator
	names     CookieNames
	now       func() time.Time
}

func NewCookieStore(c *gin.Context, validator TokenValidator, names CookieNames) *CookieStore {
	return &CookieStore{c: c, validator: validator, names: names, now: time.Now}
}

func (s *CookieStore) Load() (*clientsession.Session, error) {
	access, _ := s.c.Cookie(s.names.Access)
	refresh, _ := s.c.Cookie(s.names.Refresh)
	if access == "" && refresh == "" {
		return nil, clientsession.ErrNoSession
	}

	sess := &clientsession.Session{RefreshToken: refresh}
	if access == "" {
		return sess, nil
	}

	claims, err := s.validator.ValidateToken(s.c.Request.Context(), access)
	if err != nil || claims.Type != jwt.TokenTypeAccess {
		return sess, nil
	}
	sess.AccessToken = access
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	sess.User = clientsession.User{
		ID:          claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}
	return sess, nil
}

func (s *CookieStore) Save(sess *clientsession.Session) error {
	s.set(s.names.Access, sess.AccessToken, sess.ExpiresAt)
	s.set(s.names.Refresh, sess.RefreshToken, sess.RefreshExpiresAt)
	return nil
}

func (s *CookieStore) Clear() error {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.names.Access, "", -1, "/", "", s.names.Secure, true)
	s.c.SetCookie(s.names.Refresh, "", -1, "/", "", s.names.Secure, true)
	return nil
}

func (s *CookieStore) set(name, value string, expires time.Time) {
	maxAge := 0
	if !expires.IsZero() {
		maxAge = int(expires.Sub(s.now()).Seconds())
		if maxAge <= 0 {
			maxAge = -1
		}
	}
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(name, value, maxAge, "/", "", s.names.Secure, true)
}
