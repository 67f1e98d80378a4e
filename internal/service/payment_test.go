package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"

	"github.com/shopspring/decimal"
)

type fakeLoanStore struct {
	loans map[string]*domain.Loan

	contributeErrs []error // popped per call before succeeding
	contributions  []decimal.Decimal
}

func (f *fakeLoanStore) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *loan
	return &cp, nil
}

func (f *fakeLoanStore) Contribute(ctx context.Context, loanID string, amount decimal.Decimal, p *domain.Payment) (decimal.Decimal, error) {
	if len(f.contributeErrs) > 0 {
		err := f.contributeErrs[0]
		f.contributeErrs = f.contributeErrs[1:]
		if err != nil {
			return decimal.Zero, err
		}
	}
	loan, ok := f.loans[loanID]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	if amount.GreaterThan(loan.TotalAmount) {
		return decimal.Zero, domain.NewValidationError("amount", "contribution exceeds remaining balance")
	}
	loan.TotalAmount = loan.TotalAmount.Sub(amount)
	if loan.TotalAmount.LessThanOrEqual(decimal.Zero) {
		loan.Status = domain.LoanStatusFinalized
	}
	f.contributions = append(f.contributions, amount)
	return loan.TotalAmount, nil
}

type fakeInstallmentStore struct {
	installments map[string]domain.Installment
}

func (f *fakeInstallmentStore) ListByLoan(ctx context.Context, loanID string) ([]domain.Installment, error) {
	var out []domain.Installment
	for _, ins := range f.installments {
		if ins.LoanID == loanID {
			out = append(out, ins)
		}
	}
	return out, nil
}

func (f *fakeInstallmentStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Installment, error) {
	var out []domain.Installment
	for _, id := range ids {
		if ins, ok := f.installments[id]; ok {
			out = append(out, ins)
		}
	}
	return out, nil
}

type fakeLedgerStore struct {
	applied     []*domain.Payment
	finalized   []bool
	receipts    []*domain.Receipt
	settlements []repository.SettlementBatch
	reverted    []string
}

func (f *fakeLedgerStore) ApplyInstallmentPayment(ctx context.Context, p *domain.Payment, paymentDate time.Time, finalizeLoan bool, receipt *domain.Receipt) error {
	f.applied = append(f.applied, p)
	f.finalized = append(f.finalized, finalizeLoan)
	f.receipts = append(f.receipts, receipt)
	return nil
}

func (f *fakeLedgerStore) ApplySettlement(ctx context.Context, b repository.SettlementBatch) error {
	f.settlements = append(f.settlements, b)
	return nil
}

func (f *fakeLedgerStore) Revert(ctx context.Context, paymentID string, today time.Time) error {
	f.reverted = append(f.reverted, paymentID)
	return nil
}

func (f *fakeLedgerStore) List(ctx context.Context, filter repository.PaymentsFilter) ([]domain.Payment, error) {
	return nil, nil
}

func ins(id, loanID string, number int, status domain.InstallmentStatus, capital, interest string) domain.Installment {
	return domain.Installment{
		ID:             id,
		LoanID:         loanID,
		PartnerID:      "partner-1",
		Number:         number,
		DueDate:        time.Date(2026, time.Month(number), 1, 0, 0, 0, 0, time.UTC),
		Status:         status,
		CapitalAmount:  d(capital),
		InterestAmount: d(interest),
		TotalAmount:    d(capital).Add(d(interest)),
	}
}

func newPaymentFixture() (*fakeLoanStore, *fakeInstallmentStore, *fakeLedgerStore, *PaymentService) {
	loans := &fakeLoanStore{loans: map[string]*domain.Loan{
		"loan-1": {
			ID: "loan-1", PartnerID: "partner-1", PartnerName: "Ana Perez",
			Type: domain.LoanTypeStandard, TotalAmount: d("300"),
			Status: domain.LoanStatusActive,
		},
	}}
	installments := &fakeInstallmentStore{installments: map[string]domain.Installment{
		"i1": ins("i1", "loan-1", 1, domain.InstallmentStatusPaid, "100", "15"),
		"i2": ins("i2", "loan-1", 2, domain.InstallmentStatusOverdue, "100", "10"),
		"i3": ins("i3", "loan-1", 3, domain.InstallmentStatusPending, "100", "5"),
	}}
	ledger := &fakeLedgerStore{}
	svc := NewPaymentService(loans, installments, ledger)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return loans, installments, ledger, svc
}

func TestPayInstallments_SumsAndFinalizes(t *testing.T) {
	_, _, ledger, svc := newPaymentFixture()

	// i1 is already paid; paying i2+i3 settles the whole schedule
	payment, err := svc.PayInstallments(context.Background(), "loan-1", []string{"i2", "i3"}, time.Time{})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	if !payment.TotalAmount.Decimal.Equal(d("215")) {
		t.Errorf("total: expected 215, got %s", payment.TotalAmount.Decimal)
	}
	if !payment.CapitalAmount.Decimal.Equal(d("200")) {
		t.Errorf("capital: expected 200, got %s", payment.CapitalAmount.Decimal)
	}
	if !payment.InterestAmount.Decimal.Equal(d("15")) {
		t.Errorf("interest: expected 15, got %s", payment.InterestAmount.Decimal)
	}
	if payment.Type != domain.PaymentTypeInstallment {
		t.Errorf("type: got %s", payment.Type)
	}

	if len(ledger.applied) != 1 {
		t.Fatalf("expected 1 applied payment, got %d", len(ledger.applied))
	}
	if !ledger.finalized[0] {
		t.Error("expected the loan to be finalized with the last open installments")
	}
	if ledger.receipts[0] == nil || ledger.receipts[0].Kind != domain.ReceiptKindInstallmentPayment {
		t.Error("expected an installment payment receipt in the same commit")
	}
}

func TestPayInstallments_PartialDoesNotFinalize(t *testing.T) {
	_, _, ledger, svc := newPaymentFixture()

	if _, err := svc.PayInstallments(context.Background(), "loan-1", []string{"i2"}, time.Time{}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if ledger.finalized[0] {
		t.Error("loan must stay open while i3 is pending")
	}
}

func TestPayInstallments_RejectsPaidAndForeign(t *testing.T) {
	_, installments, _, svc := newPaymentFixture()

	_, err := svc.PayInstallments(context.Background(), "loan-1", []string{"i1"}, time.Time{})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("paying a paid installment: expected validation error, got %v", err)
	}

	installments.installments["other"] = ins("other", "loan-2", 1, domain.InstallmentStatusPending, "50", "5")
	_, err = svc.PayInstallments(context.Background(), "loan-1", []string{"other"}, time.Time{})
	if !errors.As(err, &verr) {
		t.Fatalf("foreign installment: expected validation error, got %v", err)
	}

	_, err = svc.PayInstallments(context.Background(), "loan-1", []string{"missing"}, time.Time{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown installment: expected not found, got %v", err)
	}
}

func TestContribute_RetriesOnConflict(t *testing.T) {
	loans, _, _, svc := newPaymentFixture()
	loans.contributeErrs = []error{domain.ErrConflict, domain.ErrConflict}

	payment, newBalance, err := svc.Contribute(context.Background(), "loan-1", "", d("100"), time.Time{})
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if !newBalance.Equal(d("200")) {
		t.Errorf("balance: expected 200, got %s", newBalance)
	}
	if payment.Type != domain.PaymentTypeContribution {
		t.Errorf("type: got %s", payment.Type)
	}
	if len(payment.InstallmentIDs) != 0 {
		t.Error("a contribution references no installments")
	}
}

func TestContribute_GivesUpAfterRetries(t *testing.T) {
	loans, _, _, svc := newPaymentFixture()
	loans.contributeErrs = []error{domain.ErrConflict, domain.ErrConflict, domain.ErrConflict}

	_, _, err := svc.Contribute(context.Background(), "loan-1", "", d("100"), time.Time{})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
	if len(loans.contributions) != 0 {
		t.Error("no contribution should have landed")
	}
}

func TestContribute_RejectsNonPositiveAmount(t *testing.T) {
	_, _, _, svc := newPaymentFixture()

	var verr *domain.ValidationError
	_, _, err := svc.Contribute(context.Background(), "loan-1", "", decimal.Zero, time.Time{})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSettlePeriod_BatchesAcrossLoans(t *testing.T) {
	loans, installments, ledger, svc := newPaymentFixture()
	loans.loans["loan-2"] = &domain.Loan{
		ID: "loan-2", PartnerID: "partner-2", PartnerName: "Luis Gomez",
		Type: domain.LoanTypeStandard, TotalAmount: d("100"),
		Status: domain.LoanStatusActive,
	}
	installments.installments["j1"] = ins("j1", "loan-2", 1, domain.InstallmentStatusOverdue, "50", "2")
	installments.installments["j2"] = ins("j2", "loan-2", 2, domain.InstallmentStatusPending, "50", "1")

	// i2+i3 settle loan-1 completely; j1 leaves loan-2 open
	settled, err := svc.SettlePeriod(context.Background(), []string{"i2", "i3", "j1"})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled != 3 {
		t.Fatalf("expected 3 settled, got %d", settled)
	}

	if len(ledger.settlements) != 1 {
		t.Fatalf("expected one batch, got %d", len(ledger.settlements))
	}
	batch := ledger.settlements[0]
	if len(batch.Payments) != 3 || len(batch.Receipts) != 3 {
		t.Fatalf("expected one payment and receipt per installment, got %d/%d", len(batch.Payments), len(batch.Receipts))
	}
	if len(batch.FinalizeLoanIDs) != 1 || batch.FinalizeLoanIDs[0] != "loan-1" {
		t.Fatalf("expected only loan-1 finalized, got %v", batch.FinalizeLoanIDs)
	}

	for _, p := range batch.Payments {
		if len(p.InstallmentIDs) != 1 {
			t.Errorf("each batch payment covers exactly one installment, got %v", p.InstallmentIDs)
		}
	}
}

func TestSettlePeriod_RejectsPaidInstallment(t *testing.T) {
	_, _, _, svc := newPaymentFixture()

	var verr *domain.ValidationError
	_, err := svc.SettlePeriod(context.Background(), []string{"i1"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScheduleSettled(t *testing.T) {
	all := []domain.Installment{
		{ID: "a", Status: domain.InstallmentStatusPaid},
		{ID: "b", Status: domain.InstallmentStatusOverdue},
		{ID: "c", Status: domain.InstallmentStatusPending},
	}

	if scheduleSettled(all, map[string]struct{}{"b": {}}) {
		t.Error("c is still open, schedule is not settled")
	}
	if !scheduleSettled(all, map[string]struct{}{"b": {}, "c": {}}) {
		t.Error("b+c close everything that is not already paid")
	}
	if !scheduleSettled(nil, nil) {
		t.Error("an empty schedule counts as settled")
	}
}

func TestRevert_Delegates(t *testing.T) {
	_, _, ledger, svc := newPaymentFixture()

	if err := svc.Revert(context.Background(), "pay-1"); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if len(ledger.reverted) != 1 || ledger.reverted[0] != "pay-1" {
		t.Fatalf("expected revert of pay-1, got %v", ledger.reverted)
	}
}
