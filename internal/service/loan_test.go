package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"
)

type fakeLoanCreator struct {
	created  []*domain.Loan
	schedule [][]domain.Installment
	receipts []*domain.Receipt
}

func (f *fakeLoanCreator) CreateWithSchedule(ctx context.Context, l *domain.Loan, schedule []domain.Installment, receipt *domain.Receipt) error {
	f.created = append(f.created, l)
	f.schedule = append(f.schedule, schedule)
	f.receipts = append(f.receipts, receipt)
	return nil
}

func (f *fakeLoanCreator) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	for _, l := range f.created {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLoanCreator) List(ctx context.Context, filter repository.LoansFilter) ([]domain.Loan, error) {
	var out []domain.Loan
	for _, l := range f.created {
		out = append(out, *l)
	}
	return out, nil
}

type fakePartnerReader struct {
	partners map[string]*domain.Partner
}

func (f *fakePartnerReader) GetByID(ctx context.Context, id string) (*domain.Partner, error) {
	p, ok := f.partners[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

type fakeScheduleReader struct{}

func (f *fakeScheduleReader) ListByLoan(ctx context.Context, loanID string) ([]domain.Installment, error) {
	return nil, nil
}

func newLoanFixture() (*fakeLoanCreator, *LoanService) {
	loans := &fakeLoanCreator{}
	partners := &fakePartnerReader{partners: map[string]*domain.Partner{
		"partner-1": {ID: "partner-1", FirstName: "Ana", LastName: "Perez"},
	}}
	return loans, NewLoanService(loans, partners, &fakeScheduleReader{})
}

func TestGrant_CreatesScheduleAndReceiptTogether(t *testing.T) {
	store, svc := newLoanFixture()

	loan, err := svc.Grant(context.Background(), CreateLoanInput{
		PartnerID:    "partner-1",
		Type:         domain.LoanTypeStandard,
		Amount:       d("1200"),
		StartDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		TermMonths:   12,
		InterestRate: d("5"),
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}

	if loan.PartnerName != "Ana Perez" {
		t.Errorf("partner name snapshot: got %q", loan.PartnerName)
	}
	if loan.Status != domain.LoanStatusActive {
		t.Errorf("status: got %s", loan.Status)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(store.created))
	}
	schedule := store.schedule[0]
	if len(schedule) != 12 {
		t.Fatalf("expected 12 installments persisted with the loan, got %d", len(schedule))
	}
	for _, ins := range schedule {
		if ins.ID == "" || ins.LoanID != loan.ID || ins.PartnerID != loan.PartnerID {
			t.Fatalf("installment not wired to the loan: %+v", ins)
		}
	}

	receipt := store.receipts[0]
	if receipt == nil || receipt.Kind != domain.ReceiptKindLoanGrant {
		t.Fatalf("expected a loan grant receipt, got %+v", receipt)
	}
	if !receipt.Amount.Equal(d("1200")) {
		t.Errorf("receipt amount: got %s", receipt.Amount)
	}
}

func TestGrant_UnknownPartner(t *testing.T) {
	_, svc := newLoanFixture()

	_, err := svc.Grant(context.Background(), CreateLoanInput{
		PartnerID:  "nobody",
		Type:       domain.LoanTypeStandard,
		Amount:     d("100"),
		TermMonths: 3,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGrant_RejectsBadInput(t *testing.T) {
	_, svc := newLoanFixture()

	var verr *domain.ValidationError

	_, err := svc.Grant(context.Background(), CreateLoanInput{
		PartnerID: "partner-1", Type: domain.LoanTypeStandard, Amount: d("0"), TermMonths: 3,
	})
	if !errors.As(err, &verr) {
		t.Fatalf("zero amount: expected validation error, got %v", err)
	}

	_, err = svc.Grant(context.Background(), CreateLoanInput{
		PartnerID: "partner-1", Type: domain.LoanTypeStandard, Amount: d("100"), TermMonths: -1,
	})
	if !errors.As(err, &verr) {
		t.Fatalf("negative term: expected validation error, got %v", err)
	}
}

func TestGrant_OpenCustomLoanHasNoSchedule(t *testing.T) {
	store, svc := newLoanFixture()

	_, err := svc.Grant(context.Background(), CreateLoanInput{
		PartnerID:  "partner-1",
		Type:       domain.LoanTypeCustom,
		Amount:     d("500"),
		TermMonths: 0,
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if len(store.schedule[0]) != 0 {
		t.Fatalf("open loan must have no installments, got %d", len(store.schedule[0]))
	}
}
