package service

import (
	"errors"
	"testing"
	"time"

	"coop-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestGenerateSchedule_StandardLoan(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule, err := GenerateSchedule(ScheduleTerms{
		Principal:    d("1200"),
		StartDate:    start,
		TermMonths:   12,
		Type:         domain.LoanTypeStandard,
		InterestRate: d("5"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(schedule) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(schedule))
	}

	first := schedule[0]
	if !first.CapitalAmount.Equal(d("100")) {
		t.Errorf("first capital: expected 100, got %s", first.CapitalAmount)
	}
	// 5% of the full 1200, computed before the capital decrement
	if !first.InterestAmount.Equal(d("60")) {
		t.Errorf("first interest: expected 60, got %s", first.InterestAmount)
	}
	if !first.TotalAmount.Equal(d("160")) {
		t.Errorf("first total: expected 160, got %s", first.TotalAmount)
	}
	if first.Number != 1 {
		t.Errorf("first number: expected 1, got %d", first.Number)
	}
	if !first.DueDate.Equal(start.AddDate(0, 1, 0)) {
		t.Errorf("first due date: expected %v, got %v", start.AddDate(0, 1, 0), first.DueDate)
	}

	// last installment: only 100 remains outstanding
	last := schedule[11]
	if !last.InterestAmount.Equal(d("5")) {
		t.Errorf("last interest: expected 5, got %s", last.InterestAmount)
	}
	if !last.DueDate.Equal(start.AddDate(0, 12, 0)) {
		t.Errorf("last due date: expected %v, got %v", start.AddDate(0, 12, 0), last.DueDate)
	}
}

func TestGenerateSchedule_CapitalSumsToPrincipal(t *testing.T) {
	// 1000/3 does not divide evenly; the remainder lands on the last installment
	schedule, err := GenerateSchedule(ScheduleTerms{
		Principal:    d("1000"),
		StartDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TermMonths:   3,
		Type:         domain.LoanTypeStandard,
		InterestRate: d("2"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	sum := decimal.Zero
	for _, ins := range schedule {
		sum = sum.Add(ins.CapitalAmount)
		if !ins.TotalAmount.Equal(ins.CapitalAmount.Add(ins.InterestAmount)) {
			t.Errorf("installment %d: total %s != capital %s + interest %s",
				ins.Number, ins.TotalAmount, ins.CapitalAmount, ins.InterestAmount)
		}
	}
	if !sum.Equal(d("1000")) {
		t.Fatalf("capital sum: expected 1000, got %s", sum)
	}

	if !schedule[0].CapitalAmount.Equal(d("333.33")) {
		t.Errorf("expected even capital 333.33, got %s", schedule[0].CapitalAmount)
	}
	if !schedule[2].CapitalAmount.Equal(d("333.34")) {
		t.Errorf("expected last capital 333.34, got %s", schedule[2].CapitalAmount)
	}
}

func TestGenerateSchedule_InterestDecreases(t *testing.T) {
	schedule, err := GenerateSchedule(ScheduleTerms{
		Principal:    d("5000"),
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TermMonths:   10,
		Type:         domain.LoanTypeStandard,
		InterestRate: d("3.5"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for i := 1; i < len(schedule); i++ {
		if schedule[i].InterestAmount.GreaterThan(schedule[i-1].InterestAmount) {
			t.Fatalf("interest rose from installment %d to %d: %s -> %s",
				i, i+1, schedule[i-1].InterestAmount, schedule[i].InterestAmount)
		}
	}
}

func TestGenerateSchedule_CustomLoanConstantInterest(t *testing.T) {
	schedule, err := GenerateSchedule(ScheduleTerms{
		Principal:     d("900"),
		StartDate:     time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		TermMonths:    6,
		Type:          domain.LoanTypeCustom,
		FixedInterest: d("15"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(schedule) != 6 {
		t.Fatalf("expected 6 installments, got %d", len(schedule))
	}

	for _, ins := range schedule {
		if !ins.InterestAmount.Equal(d("15")) {
			t.Errorf("installment %d: expected fixed interest 15, got %s", ins.Number, ins.InterestAmount)
		}
		if !ins.CapitalAmount.Equal(d("150")) {
			t.Errorf("installment %d: expected capital 150, got %s", ins.Number, ins.CapitalAmount)
		}
	}
}

func TestGenerateSchedule_ZeroTermMeansNoSchedule(t *testing.T) {
	schedule, err := GenerateSchedule(ScheduleTerms{
		Principal:  d("500"),
		StartDate:  time.Now(),
		TermMonths: 0,
		Type:       domain.LoanTypeCustom,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(schedule) != 0 {
		t.Fatalf("expected empty schedule, got %d installments", len(schedule))
	}
}

func TestGenerateSchedule_Validation(t *testing.T) {
	cases := []struct {
		name  string
		terms ScheduleTerms
	}{
		{"zero principal", ScheduleTerms{Principal: decimal.Zero, TermMonths: 3, Type: domain.LoanTypeStandard}},
		{"negative rate", ScheduleTerms{Principal: d("100"), TermMonths: 3, Type: domain.LoanTypeStandard, InterestRate: d("-1")}},
		{"negative fixed interest", ScheduleTerms{Principal: d("100"), TermMonths: 3, Type: domain.LoanTypeCustom, FixedInterest: d("-1")}},
		{"unknown type", ScheduleTerms{Principal: d("100"), TermMonths: 3, Type: domain.LoanType("weird")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateSchedule(tc.terms)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
