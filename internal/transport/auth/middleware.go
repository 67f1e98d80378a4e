package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"coop-backoffice/internal/domain"
)

type ctxKey string

const SessionIDKey ctxKey = "sessionID"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Session, error)
}

// Middleware gates every request behind an unlocked session. The token comes
// from the Authorization header, or from a "token" query parameter for
// websocket upgrades where headers cannot be set by the browser.
func Middleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			session, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionIDKey, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSessionID(ctx context.Context) (int64, error) {
	sessionID, ok := ctx.Value(SessionIDKey).(int64)
	if !ok {
		return 0, errors.New("sessionID not found in context")
	}
	return sessionID, nil
}
