package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/cryptox"
	"github.com/classdesk/classboard/pkg/idx"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// SessionService manages server-side browser sessions. The browser holds an
// opaque token in a cookie; only its fingerprint touches the database.
type SessionService struct {
	Store store.Store
	TTL   time.Duration
}

// Begin creates a fresh anonymous session and returns it with the plaintext
// cookie token. The token is not recoverable afterwards.
func (s *SessionService) Begin(ctx context.Context) (domain.Session, string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(token),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return domain.Session{}, "", fmt.Errorf("failed to create session: %w", err)
	}

	return session, token, nil
}

// Resolve returns the live session for a cookie token. Expired or unknown
// tokens yield ErrSessionNotFound.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to resolve session: %w", err)
	}
	return session, nil
}

// User loads the authenticated user bound to a session, or ErrSessionNotFound
// for anonymous sessions.
func (s *SessionService) User(ctx context.Context, session domain.Session) (domain.User, error) {
	if !session.Authenticated() {
		return domain.User{}, ErrSessionNotFound
	}

	user, err := s.Store.Users().GetUserByID(ctx, *session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrSessionNotFound
		}
		return domain.User{}, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

// Destroy removes a session (logout). Destroying an already-gone session is
// not an error.
func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	if err := s.Store.Sessions().DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
