// Package identity is the client's identity source: it holds the bearer
// token issued by the external auth provider and derives the stable user id
// from it. Being signed out is a normal state, not an error.
package identity

import (
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource stores the current bearer token and exposes the user id
// carried in its subject claim. The token is treated as opaque apart from
// that claim; signature verification is the server's job.
type TokenSource struct {
	mu    sync.RWMutex
	token string
}

func NewTokenSource(token string) *TokenSource {
	return &TokenSource{token: token}
}

// SetToken replaces the current token. An empty string signs the user out.
func (s *TokenSource) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the current bearer token, or "" when signed out.
func (s *TokenSource) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUserID returns the subject claim of the current token, or "" when
// signed out or the token is malformed.
func (s *TokenSource) CurrentUserID() string {
	token := s.Token()
	if token == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
