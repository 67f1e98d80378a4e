package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coop-backoffice/internal/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return fmt.Sprintf("%x", sum)
}

// Create stores the sha256 hash of a freshly issued session token.
func (r *SessionRepository) Create(ctx context.Context, plainToken string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, expires_at) VALUES ($1, $2)`,
		hashToken(plainToken), expiresAt)
	return err
}

// FindByToken resolves a plain bearer token to an unexpired session.
func (r *SessionRepository) FindByToken(ctx context.Context, plainToken string) (*domain.Session, error) {
	query := `
		SELECT id, token_hash, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1
		  AND (expires_at IS NULL OR expires_at > $2)
	`

	var s domain.Session
	err := r.db.QueryRowContext(ctx, query, hashToken(plainToken), time.Now()).Scan(
		&s.ID,
		&s.TokenHash,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteExpired drops stale sessions. Called from the background cleanup
// ticker.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= $1`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
