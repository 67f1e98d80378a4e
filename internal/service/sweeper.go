package service

import (
	"context"
	"log"
	"time"
)

type SweeperStore interface {
	SweepOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweeperService moves past-due pending installments to overdue. Safe to run
// repeatedly: a swept installment is no longer pending, so the next run with
// the same reference date touches nothing.
type SweeperService struct {
	repo SweeperStore
}

func NewSweeperService(repo SweeperStore) *SweeperService {
	return &SweeperService{repo: repo}
}

// Sweep marks every pending installment due strictly before the reference
// day as overdue and returns how many were transitioned. The comparison is
// date-only; time of day on the reference is ignored.
func (s *SweeperService) Sweep(ctx context.Context, reference time.Time) (int64, error) {
	if reference.IsZero() {
		reference = time.Now()
	}
	cutoff := startOfDay(reference)

	n, err := s.repo.SweepOverdue(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("overdue sweep: %d installments marked overdue (cutoff %s)", n, cutoff.Format("2006-01-02"))
	}
	return n, nil
}
