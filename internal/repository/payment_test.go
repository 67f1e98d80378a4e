package repository

import (
	"testing"

	"coop-backoffice/internal/domain"
)

func TestRevertedLoanStatus(t *testing.T) {
	cases := []struct {
		current domain.LoanStatus
		want    domain.LoanStatus
	}{
		{domain.LoanStatusFinalized, domain.LoanStatusActive},
		{domain.LoanStatusActive, domain.LoanStatusActive},
		{domain.LoanStatusOverdue, domain.LoanStatusOverdue},
	}

	for _, c := range cases {
		if got := revertedLoanStatus(c.current); got != c.want {
			t.Errorf("revertedLoanStatus(%s): got %s, want %s", c.current, got, c.want)
		}
	}
}
