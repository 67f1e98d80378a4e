package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const contributionRetries = 3

type PaymentLoanStore interface {
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	Contribute(ctx context.Context, loanID string, amount decimal.Decimal, p *domain.Payment) (decimal.Decimal, error)
}

type PaymentInstallmentStore interface {
	ListByLoan(ctx context.Context, loanID string) ([]domain.Installment, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Installment, error)
}

type PaymentLedgerStore interface {
	ApplyInstallmentPayment(ctx context.Context, p *domain.Payment, paymentDate time.Time, finalizeLoan bool, receipt *domain.Receipt) error
	ApplySettlement(ctx context.Context, b repository.SettlementBatch) error
	Revert(ctx context.Context, paymentID string, today time.Time) error
	List(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error)
}

type PaymentService struct {
	loans        PaymentLoanStore
	installments PaymentInstallmentStore
	payments     PaymentLedgerStore

	now func() time.Time
}

func NewPaymentService(loans PaymentLoanStore, installments PaymentInstallmentStore, payments PaymentLedgerStore) *PaymentService {
	return &PaymentService{
		loans:        loans,
		installments: installments,
		payments:     payments,
		now:          time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isoDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// scheduleSettled reports whether every installment of a loan is paid once the
// selected ones are marked: already paid, or part of the current selection.
func scheduleSettled(all []domain.Installment, selected map[string]struct{}) bool {
	for _, ins := range all {
		if ins.Status == domain.InstallmentStatusPaid {
			continue
		}
		if _, ok := selected[ins.ID]; !ok {
			return false
		}
	}
	return true
}

// PayInstallments settles one or more specific installments of a loan with a
// single payment (Mode A). When the payment covers the last open installment
// the loan is finalized in the same commit.
func (s *PaymentService) PayInstallments(ctx context.Context, loanID string, installmentIDs []string, paymentDate time.Time) (*domain.Payment, error) {
	if len(installmentIDs) == 0 {
		return nil, domain.NewValidationError("installmentIds", "at least one installment must be selected")
	}
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}

	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	selected, err := s.installments.ListByIDs(ctx, installmentIDs)
	if err != nil {
		return nil, err
	}
	if len(selected) != len(installmentIDs) {
		return nil, fmt.Errorf("%d of %d selected installments: %w", len(installmentIDs)-len(selected), len(installmentIDs), domain.ErrNotFound)
	}

	var capital, interest, total decimal.Decimal
	selectedSet := make(map[string]struct{}, len(selected))
	for _, ins := range selected {
		if ins.LoanID != loan.ID {
			return nil, domain.NewValidationError("installmentIds",
				fmt.Sprintf("installment %s does not belong to loan %s", ins.ID, loan.ID))
		}
		if !ins.Payable() {
			return nil, domain.NewValidationError("installmentIds",
				fmt.Sprintf("installment %d is already paid", ins.Number))
		}
		capital = capital.Add(ins.CapitalAmount)
		interest = interest.Add(ins.InterestAmount)
		total = total.Add(ins.TotalAmount)
		selectedSet[ins.ID] = struct{}{}
	}

	all, err := s.installments.ListByLoan(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	finalize := scheduleSettled(all, selectedSet)

	payment := &domain.Payment{
		ID:             uuid.NewString(),
		PartnerID:      loan.PartnerID,
		LoanID:         loan.ID,
		InstallmentIDs: installmentIDs,
		PaymentDate:    isoDate(paymentDate),
		TotalAmount:    domain.Money(total),
		CapitalAmount:  domain.Money(capital),
		InterestAmount: domain.Money(interest),
		PartnerName:    loan.PartnerName,
		Type:           domain.PaymentTypeInstallment,
	}
	receipt := &domain.Receipt{
		ID:          uuid.NewString(),
		PartnerID:   loan.PartnerID,
		PartnerName: loan.PartnerName,
		LoanID:      loan.ID,
		PaymentID:   &payment.ID,
		Kind:        domain.ReceiptKindInstallmentPayment,
		Amount:      total,
		Detail:      fmt.Sprintf("%d installment(s) paid, total %s", len(installmentIDs), total.StringFixed(2)),
	}

	if err := s.payments.ApplyInstallmentPayment(ctx, payment, paymentDate, finalize, receipt); err != nil {
		return nil, fmt.Errorf("apply installment payment: %w", err)
	}

	if finalize {
		log.Printf("loan %s fully settled by payment %s", loan.ID, payment.ID)
	}
	return payment, nil
}

// Contribute applies a free-form contribution against the loan balance
// (Mode B). The balance check and decrement run inside one store transaction;
// a concurrent contribution to the same loan aborts that transaction and is
// retried a bounded number of times here.
func (s *PaymentService) Contribute(ctx context.Context, loanID, partnerID string, amount decimal.Decimal, paymentDate time.Time) (*domain.Payment, decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, domain.NewValidationError("amount", "contribution must be positive")
	}
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}

	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if partnerID == "" {
		partnerID = loan.PartnerID
	}

	payment := &domain.Payment{
		ID:             uuid.NewString(),
		PartnerID:      partnerID,
		LoanID:         loan.ID,
		InstallmentIDs: nil,
		PaymentDate:    isoDate(paymentDate),
		TotalAmount:    domain.Money(amount),
		CapitalAmount:  domain.Money(amount),
		InterestAmount: domain.Money(decimal.Zero),
		PartnerName:    loan.PartnerName,
		Type:           domain.PaymentTypeContribution,
	}

	var newBalance decimal.Decimal
	for attempt := 1; ; attempt++ {
		newBalance, err = s.loans.Contribute(ctx, loan.ID, amount, payment)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= contributionRetries {
			return nil, decimal.Zero, err
		}
		log.Printf("contribution to loan %s hit a concurrent update (attempt %d), retrying", loan.ID, attempt)
		select {
		case <-ctx.Done():
			return nil, decimal.Zero, ctx.Err()
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}

	return payment, newBalance, nil
}

// SettlePeriod marks a cross-loan selection of installments paid in one batch
// (Mode C), one payment and one receipt per installment, dated now. Loans
// whose last open installment is in the selection are finalized in the same
// commit; the completion decision for each loan is a separate read and can
// race a concurrent writer on that loan.
func (s *PaymentService) SettlePeriod(ctx context.Context, installmentIDs []string) (int, error) {
	if len(installmentIDs) == 0 {
		return 0, domain.NewValidationError("installmentIds", "at least one installment must be selected")
	}

	selected, err := s.installments.ListByIDs(ctx, installmentIDs)
	if err != nil {
		return 0, err
	}
	if len(selected) != len(installmentIDs) {
		return 0, fmt.Errorf("%d of %d selected installments: %w", len(installmentIDs)-len(selected), len(installmentIDs), domain.ErrNotFound)
	}

	now := s.now()
	selectedByLoan := make(map[string]map[string]struct{})
	for _, ins := range selected {
		if !ins.Payable() {
			return 0, domain.NewValidationError("installmentIds",
				fmt.Sprintf("installment %s is already paid", ins.ID))
		}
		if selectedByLoan[ins.LoanID] == nil {
			selectedByLoan[ins.LoanID] = make(map[string]struct{})
		}
		selectedByLoan[ins.LoanID][ins.ID] = struct{}{}
	}

	loans := make(map[string]*domain.Loan, len(selectedByLoan))
	batch := repository.SettlementBatch{PaymentDate: now}

	for loanID, sel := range selectedByLoan {
		loan, err := s.loans.GetByID(ctx, loanID)
		if err != nil {
			return 0, err
		}
		loans[loanID] = loan

		all, err := s.installments.ListByLoan(ctx, loanID)
		if err != nil {
			return 0, err
		}
		if scheduleSettled(all, sel) {
			batch.FinalizeLoanIDs = append(batch.FinalizeLoanIDs, loanID)
		}
	}

	for _, ins := range selected {
		loan := loans[ins.LoanID]
		payment := domain.Payment{
			ID:             uuid.NewString(),
			PartnerID:      ins.PartnerID,
			LoanID:         ins.LoanID,
			InstallmentIDs: []string{ins.ID},
			PaymentDate:    isoDate(now),
			TotalAmount:    domain.Money(ins.TotalAmount),
			CapitalAmount:  domain.Money(ins.CapitalAmount),
			InterestAmount: domain.Money(ins.InterestAmount),
			PartnerName:    loan.PartnerName,
			Type:           domain.PaymentTypeInstallment,
		}
		batch.Payments = append(batch.Payments, payment)
		batch.Receipts = append(batch.Receipts, domain.Receipt{
			ID:          uuid.NewString(),
			PartnerID:   ins.PartnerID,
			PartnerName: loan.PartnerName,
			LoanID:      ins.LoanID,
			PaymentID:   &batch.Payments[len(batch.Payments)-1].ID,
			Kind:        domain.ReceiptKindInstallmentPayment,
			Amount:      ins.TotalAmount,
			Detail:      fmt.Sprintf("installment %d settled in period batch", ins.Number),
		})
	}

	if err := s.payments.ApplySettlement(ctx, batch); err != nil {
		return 0, fmt.Errorf("apply settlement: %w", err)
	}

	log.Printf("period settlement: %d installments across %d loans, %d loans finalized",
		len(selected), len(selectedByLoan), len(batch.FinalizeLoanIDs))
	return len(selected), nil
}

// Revert undoes a payment: installments return to pending or overdue based on
// their due date against today, a finalized loan reopens, and the payment row
// is deleted.
func (s *PaymentService) Revert(ctx context.Context, paymentID string) error {
	if err := s.payments.Revert(ctx, paymentID, startOfDay(s.now())); err != nil {
		return err
	}
	log.Printf("payment %s reverted", paymentID)
	return nil
}

func (s *PaymentService) List(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error) {
	return s.payments.List(ctx, f)
}
