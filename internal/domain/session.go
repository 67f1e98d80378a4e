package domain

import "time"

// Session is an unlocked back-office session issued after a successful PIN
// check. The plain token is returned once; only its sha256 hash is stored.
type Session struct {
	ID        int64
	TokenHash string
	ExpiresAt *time.Time
	CreatedAt *time.Time
}
