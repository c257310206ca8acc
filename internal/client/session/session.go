// Package session keeps the CLI's access token and exposes the owner it
// was issued for.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/diary/internal/client/repositories/metadata"
	"github.com/golang-jwt/jwt/v5"
)

const tokenKey = "access_token"

// claims mirrors the server's token payload. The client never holds the
// signing key, so it reads claims without verifying them; the server
// verifies every call.
type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"UserID"`
}

// TokenSession stores the access token in the metadata table.
type TokenSession struct {
	repo metadata.Repository
	now  func() time.Time

	mu     sync.Mutex
	loaded bool
	token  string
}

func NewTokenSession(repo metadata.Repository) *TokenSession {
	return &TokenSession{repo: repo, now: time.Now}
}

// Login replaces the stored token.
func (s *TokenSession) Login(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Set(ctx, tokenKey, []byte(token)); err != nil {
		return err
	}
	s.token, s.loaded = token, true
	return nil
}

// Logout forgets the token.
func (s *TokenSession) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, tokenKey); err != nil {
		return err
	}
	s.token, s.loaded = "", true
	return nil
}

// Token returns the stored token, or "" when signed out.
func (s *TokenSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.token, nil
	}
	v, err := s.repo.Get(ctx, tokenKey)
	if err != nil {
		return "", err
	}
	s.token, s.loaded = string(v), true
	return s.token, nil
}

// UserID reports the owner of a stored, unexpired token.
func (s *TokenSession) UserID(ctx context.Context) (string, bool) {
	tok, err := s.Token(ctx)
	if err != nil || tok == "" {
		return "", false
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &c); err != nil {
		return "", false
	}
	if c.ExpiresAt != nil && !s.now().Before(c.ExpiresAt.Time) {
		return "", false
	}
	if c.UserID == "" {
		return "", false
	}
	return c.UserID, true
}
