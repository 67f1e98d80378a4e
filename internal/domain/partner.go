package domain

import (
	"strings"
	"time"
)

// Partner is a cooperative member who may hold loans.
type Partner struct {
	ID                   string
	FirstName            string
	LastName             string
	IdentificationNumber *string
	Alias                *string

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// FullName is the "First Last" form used by the loan import matcher.
func (p Partner) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
