package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStore interface {
	CreateWithSchedule(ctx context.Context, l *domain.Loan, schedule []domain.Installment, receipt *domain.Receipt) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	List(ctx context.Context, f repository.LoansFilter) ([]domain.Loan, error)
}

type LoanPartnerStore interface {
	GetByID(ctx context.Context, id string) (*domain.Partner, error)
}

type LoanInstallmentStore interface {
	ListByLoan(ctx context.Context, loanID string) ([]domain.Installment, error)
}

type LoanService struct {
	loans        LoanStore
	partners     LoanPartnerStore
	installments LoanInstallmentStore
}

func NewLoanService(loans LoanStore, partners LoanPartnerStore, installments LoanInstallmentStore) *LoanService {
	return &LoanService{
		loans:        loans,
		partners:     partners,
		installments: installments,
	}
}

type CreateLoanInput struct {
	PartnerID     string
	Type          domain.LoanType
	Amount        decimal.Decimal
	StartDate     time.Time
	TermMonths    int
	InterestRate  decimal.Decimal
	FixedInterest decimal.Decimal
}

// Grant creates the loan and its full installment schedule atomically and
// writes the grant receipt in the same commit. A custom loan with a zero term
// gets no schedule: its balance is only moved by individual contributions.
func (s *LoanService) Grant(ctx context.Context, in CreateLoanInput) (*domain.Loan, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("amount", "loan amount must be positive")
	}
	if in.TermMonths < 0 {
		return nil, domain.NewValidationError("numberOfInstallments", "term must not be negative")
	}
	if in.StartDate.IsZero() {
		in.StartDate = time.Now().UTC()
	}

	partner, err := s.partners.GetByID(ctx, in.PartnerID)
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ID:                   uuid.NewString(),
		PartnerID:            partner.ID,
		PartnerName:          partner.FullName(),
		Type:                 in.Type,
		TotalAmount:          in.Amount,
		StartDate:            in.StartDate,
		NumberOfInstallments: in.TermMonths,
		InterestRate:         in.InterestRate,
		FixedInterestAmount:  in.FixedInterest,
		Status:               domain.LoanStatusActive,
	}

	schedule, err := GenerateSchedule(ScheduleTerms{
		Principal:     in.Amount,
		StartDate:     in.StartDate,
		TermMonths:    in.TermMonths,
		Type:          in.Type,
		InterestRate:  in.InterestRate,
		FixedInterest: in.FixedInterest,
	})
	if err != nil {
		return nil, err
	}
	for i := range schedule {
		schedule[i].ID = uuid.NewString()
		schedule[i].LoanID = loan.ID
		schedule[i].PartnerID = loan.PartnerID
	}

	receipt := &domain.Receipt{
		ID:          uuid.NewString(),
		PartnerID:   loan.PartnerID,
		PartnerName: loan.PartnerName,
		LoanID:      loan.ID,
		Kind:        domain.ReceiptKindLoanGrant,
		Amount:      loan.TotalAmount,
		Detail:      fmt.Sprintf("loan granted: %s over %d installments", loan.TotalAmount.StringFixed(2), in.TermMonths),
	}

	if err := s.loans.CreateWithSchedule(ctx, loan, schedule, receipt); err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}

	log.Printf("loan %s granted to %s: %s, %d installments", loan.ID, loan.PartnerName, loan.TotalAmount.StringFixed(2), len(schedule))
	return loan, nil
}

// Get returns the loan with its schedule.
func (s *LoanService) Get(ctx context.Context, id string) (*domain.Loan, []domain.Installment, error) {
	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	schedule, err := s.installments.ListByLoan(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return loan, schedule, nil
}

func (s *LoanService) List(ctx context.Context, f repository.LoansFilter) ([]domain.Loan, error) {
	return s.loans.List(ctx, f)
}
