package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
	InstallmentStatusPaid    InstallmentStatus = "paid"
)

// Installment is one scheduled obligation under a term loan.
// TotalAmount = CapitalAmount + InterestAmount always.
type Installment struct {
	ID        string
	LoanID    string
	PartnerID string

	// Number is 1-based and unique within the loan.
	Number  int
	DueDate time.Time
	Status  InstallmentStatus

	CapitalAmount  decimal.Decimal
	InterestAmount decimal.Decimal
	TotalAmount    decimal.Decimal

	PaymentDate *time.Time
	PaymentID   *string
}

// Payable reports whether the installment can still be settled.
func (i Installment) Payable() bool {
	return i.Status == InstallmentStatusPending || i.Status == InstallmentStatusOverdue
}
