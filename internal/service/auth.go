package service

import (
	"context"
	"errors"
	"time"

	"coop-backoffice/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPIN is returned when the unlock PIN does not match.
var ErrInvalidPIN = errors.New("invalid pin")

type SessionStore interface {
	Create(ctx context.Context, plainToken string, expiresAt time.Time) error
	FindByToken(ctx context.Context, plainToken string) (*domain.Session, error)
}

// AuthService is the screen-lock collaborator: it checks the back-office PIN
// and issues bearer session tokens. The PIN itself lives as a bcrypt hash in
// configuration; no global auth state is kept in the process.
type AuthService struct {
	sessions SessionStore
	pinHash  string
	ttl      time.Duration
}

func NewAuthService(sessions SessionStore, pinHash string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{sessions: sessions, pinHash: pinHash, ttl: ttl}
}

// Unlock verifies the PIN and returns a fresh session token with its expiry.
func (s *AuthService) Unlock(ctx context.Context, pin string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.pinHash), []byte(pin)); err != nil {
		return "", time.Time{}, ErrInvalidPIN
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)
	if err := s.sessions.Create(ctx, token, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve maps a bearer token to its active session.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	return s.sessions.FindByToken(ctx, token)
}
