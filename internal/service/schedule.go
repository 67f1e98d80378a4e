package service

import (
	"time"

	"coop-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ScheduleTerms are the loan terms the amortization generator works from.
type ScheduleTerms struct {
	Principal  decimal.Decimal
	StartDate  time.Time
	TermMonths int
	Type       domain.LoanType

	// InterestRate is a percentage applied to the remaining balance
	// (standard loans).
	InterestRate decimal.Decimal
	// FixedInterest is an absolute amount per installment (custom loans).
	FixedInterest decimal.Decimal
}

// GenerateSchedule produces the ordered installment schedule for a loan.
//
// Capital is amortized evenly: principal/term rounded to 2 decimals, with the
// remainder folded into the last installment so the schedule always sums to
// the principal. Standard interest is computed on the remaining balance
// before that installment's capital is subtracted, so it only decreases over
// the term. A term of zero (or less) means an open loan with no schedule.
//
// The function is pure; persisting the schedule atomically with the loan is
// the caller's job.
func GenerateSchedule(t ScheduleTerms) ([]domain.Installment, error) {
	if t.TermMonths <= 0 {
		return nil, nil
	}
	if t.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("amount", "principal must be positive")
	}

	switch t.Type {
	case domain.LoanTypeStandard:
		if t.InterestRate.IsNegative() {
			return nil, domain.NewValidationError("interestRate", "interest rate must not be negative")
		}
	case domain.LoanTypeCustom:
		if t.FixedInterest.IsNegative() {
			return nil, domain.NewValidationError("fixedInterestAmount", "fixed interest must not be negative")
		}
	default:
		return nil, domain.NewValidationError("loanType", "unknown loan type")
	}

	term := int64(t.TermMonths)
	capital := t.Principal.DivRound(decimal.NewFromInt(term), 2)
	lastCapital := t.Principal.Sub(capital.Mul(decimal.NewFromInt(term - 1)))

	schedule := make([]domain.Installment, 0, t.TermMonths)
	remaining := t.Principal

	for i := 1; i <= t.TermMonths; i++ {
		cap := capital
		if i == t.TermMonths {
			cap = lastCapital
		}

		var interest decimal.Decimal
		if t.Type == domain.LoanTypeStandard {
			interest = remaining.Mul(t.InterestRate).Div(oneHundred).Round(2)
		} else {
			interest = t.FixedInterest
		}

		schedule = append(schedule, domain.Installment{
			Number:         i,
			DueDate:        t.StartDate.AddDate(0, i, 0),
			Status:         domain.InstallmentStatusPending,
			CapitalAmount:  cap,
			InterestAmount: interest,
			TotalAmount:    cap.Add(interest),
		})

		remaining = remaining.Sub(cap)
	}

	return schedule, nil
}
