package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coop-backoffice/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type fakeSessionStore struct {
	nextID   int64
	sessions map[string]*domain.Session // keyed by plain token
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionStore) Create(ctx context.Context, plainToken string, expiresAt time.Time) error {
	f.nextID++
	f.sessions[plainToken] = &domain.Session{ID: f.nextID, ExpiresAt: &expiresAt}
	return nil
}

func (f *fakeSessionStore) FindByToken(ctx context.Context, plainToken string) (*domain.Session, error) {
	s, ok := f.sessions[plainToken]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func pinHash(t *testing.T, pin string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	return string(hash)
}

func TestUnlock(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewAuthService(store, pinHash(t, "4321"), time.Hour)

	token, expiresAt, err := svc.Unlock(context.Background(), "4321")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 50*time.Minute {
		t.Errorf("expiry outside the configured TTL: %v", expiresAt)
	}

	session, err := svc.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if session.ID == 0 {
		t.Error("expected a session id")
	}
}

func TestUnlock_WrongPIN(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewAuthService(store, pinHash(t, "4321"), time.Hour)

	_, _, err := svc.Unlock(context.Background(), "0000")
	if !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Error("no session should be created on a failed unlock")
	}
}

func TestResolve_UnknownToken(t *testing.T) {
	svc := NewAuthService(newFakeSessionStore(), pinHash(t, "4321"), time.Hour)

	_, err := svc.Resolve(context.Background(), "bogus")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
