package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReceiptKind string

const (
	ReceiptKindLoanGrant          ReceiptKind = "loan_grant"
	ReceiptKindInstallmentPayment ReceiptKind = "installment_payment"
)

// Receipt is a write-once record handed to the partner for a loan grant or an
// installment payment.
type Receipt struct {
	ID          string
	PartnerID   string
	PartnerName string
	LoanID      string
	PaymentID   *string

	Kind   ReceiptKind
	Amount decimal.Decimal
	Detail string

	CreatedAt *time.Time
}
