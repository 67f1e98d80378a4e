package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanType string

const (
	LoanTypeStandard LoanType = "standard"
	LoanTypeCustom   LoanType = "custom"
)

type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "Active"
	LoanStatusOverdue LoanStatus = "Overdue"
	// LoanStatusFinalized keeps the historical value the cooperative's
	// records use for a fully settled loan.
	LoanStatusFinalized LoanStatus = "Finalizado"
)

// Loan is a credit extended to one partner. TotalAmount tracks outstanding
// principal: it is reduced by individual contributions, never by installment
// payments (those settle scheduled obligations instead).
type Loan struct {
	ID        string
	PartnerID string

	// PartnerName is a display snapshot taken at creation; renaming the
	// partner does not rewrite it.
	PartnerName string

	Type                 LoanType
	TotalAmount          decimal.Decimal
	StartDate            time.Time
	NumberOfInstallments int

	// InterestRate is a percentage, used only for standard loans.
	InterestRate decimal.Decimal
	// FixedInterestAmount is an absolute amount per installment, used only
	// for custom loans.
	FixedInterestAmount decimal.Decimal

	Status LoanStatus

	CreatedAt *time.Time
	UpdatedAt *time.Time
}
