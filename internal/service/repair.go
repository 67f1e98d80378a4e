package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"coop-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

// imputedInterestShare is the share of a payment's total imputed as interest
// when a legacy row is missing its capital/interest breakdown. The value is a
// one-time data-migration heuristic for the cooperative's historical records;
// it is not derived from any schedule and must not be reused elsewhere.
var imputedInterestShare = decimal.NewFromFloat(0.046)

var legacyDateLayouts = []string{
	"2/1/2006",
	"02/01/2006",
	"2-1-2006",
	"02-01-2006",
	"2/1/06",
}

type RepairStore interface {
	ListAll(ctx context.Context) ([]domain.Payment, error)
	UpdateBatch(ctx context.Context, payments []domain.Payment) error
}

type RepairNotifier interface {
	NotifyRepairDone(ctx context.Context, sessionID int64, corrected, scanned int) error
}

// RepairService is a best-effort hygiene sweep over historical payment rows:
// d/m/y date strings become ISO-8601 and missing breakdowns are imputed.
// Rows it cannot fix are skipped and logged, never failed on.
type RepairService struct {
	repo     RepairStore
	notifier RepairNotifier
}

func NewRepairService(repo RepairStore, notifier RepairNotifier) *RepairService {
	return &RepairService{repo: repo, notifier: notifier}
}

func parseLegacyDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized legacy date %q", s)
}

// planRepair computes the corrected row for one payment. It returns the fixed
// copy, whether anything changed, and the audit lines describing every
// decision taken (including skips).
func planRepair(p domain.Payment) (domain.Payment, bool, []string) {
	var (
		changed bool
		notes   []string
	)

	// ISO dates contain the literal "T" separator; everything else is
	// legacy d/m/y text.
	if !strings.Contains(p.PaymentDate, "T") {
		if t, err := parseLegacyDate(p.PaymentDate); err == nil {
			fixed := t.UTC().Format(time.RFC3339)
			notes = append(notes, fmt.Sprintf("payment %s: date %q rewritten as %s", p.ID, p.PaymentDate, fixed))
			p.PaymentDate = fixed
			changed = true
		} else {
			notes = append(notes, fmt.Sprintf("payment %s: date %q not parseable, left untouched", p.ID, p.PaymentDate))
		}
	}

	if !p.CapitalAmount.Valid || !p.InterestAmount.Valid {
		if p.TotalAmount.Valid {
			interest := p.TotalAmount.Decimal.Mul(imputedInterestShare).Round(2)
			capital := p.TotalAmount.Decimal.Sub(interest)
			p.InterestAmount = domain.Money(interest)
			p.CapitalAmount = domain.Money(capital)
			changed = true
			notes = append(notes, fmt.Sprintf("payment %s: breakdown imputed from total %s (capital %s, interest %s)",
				p.ID, p.TotalAmount.Decimal.StringFixed(2), capital.StringFixed(2), interest.StringFixed(2)))
		} else {
			notes = append(notes, fmt.Sprintf("payment %s: breakdown missing and no total to impute from, skipped", p.ID))
		}
	}

	return p, changed, notes
}

// Repair scans every payment, accumulates the fixable ones and commits them
// in one batch. Returns the number of corrected rows and the full audit log,
// and pushes a completion note to the operator session that started the sweep.
func (s *RepairService) Repair(ctx context.Context, sessionID int64) (int, []string, error) {
	payments, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, nil, err
	}

	var (
		fixed    []domain.Payment
		auditLog []string
	)
	for _, p := range payments {
		repaired, changed, notes := planRepair(p)
		auditLog = append(auditLog, notes...)
		if changed {
			fixed = append(fixed, repaired)
		}
	}

	if len(fixed) > 0 {
		if err := s.repo.UpdateBatch(ctx, fixed); err != nil {
			return 0, auditLog, fmt.Errorf("commit payment repairs: %w", err)
		}
	}

	for _, line := range auditLog {
		log.Printf("repair: %s", line)
	}
	log.Printf("repair sweep: %d of %d payments corrected", len(fixed), len(payments))

	if s.notifier != nil {
		if err := s.notifier.NotifyRepairDone(ctx, sessionID, len(fixed), len(payments)); err != nil {
			log.Printf("repair sweep: notify session %d: %v", sessionID, err)
		}
	}
	return len(fixed), auditLog, nil
}
