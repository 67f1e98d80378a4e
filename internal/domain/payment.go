package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeInstallment  PaymentType = "installment_payment"
	PaymentTypeContribution PaymentType = "individual_contribution"
)

// Payment records money received. Rows are never edited after creation except
// by the repair sweep (legacy data hygiene) and are deleted only by reversal.
type Payment struct {
	ID        string
	PartnerID string
	LoanID    string

	// InstallmentIDs is empty for individual contributions.
	InstallmentIDs []string

	// PaymentDate is an ISO-8601 string. Rows imported from the old
	// spreadsheet era may still hold d/m/y text until the repair sweep
	// rewrites them.
	PaymentDate string

	// Amounts are nullable: legacy rows can miss the capital/interest
	// breakdown, or even the total. Engine-created rows always set all three.
	TotalAmount    decimal.NullDecimal
	CapitalAmount  decimal.NullDecimal
	InterestAmount decimal.NullDecimal

	PartnerName string
	Type        PaymentType

	CreatedAt *time.Time
}
