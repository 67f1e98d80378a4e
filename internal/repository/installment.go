package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"coop-backoffice/internal/domain"
)

type InstallmentRepository struct {
	db *sql.DB
}

func NewInstallmentRepository(db *sql.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

const installmentColumns = `id, loan_id, partner_id, number, due_date, status,
	capital_amount, interest_amount, total_amount, payment_date, payment_id`

func scanInstallment(row interface{ Scan(...any) error }) (*domain.Installment, error) {
	var ins domain.Installment
	if err := row.Scan(
		&ins.ID,
		&ins.LoanID,
		&ins.PartnerID,
		&ins.Number,
		&ins.DueDate,
		&ins.Status,
		&ins.CapitalAmount,
		&ins.InterestAmount,
		&ins.TotalAmount,
		&ins.PaymentDate,
		&ins.PaymentID,
	); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (r *InstallmentRepository) queryInstallments(ctx context.Context, query string, args ...any) ([]domain.Installment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Installment
	for rows.Next() {
		ins, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ins)
	}
	return out, rows.Err()
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID string) ([]domain.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE loan_id = $1 ORDER BY number`
	return r.queryInstallments(ctx, query, loanID)
}

func (r *InstallmentRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Installment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id IN (` + placeholders(len(ids), 1) + `) ORDER BY number`
	return r.queryInstallments(ctx, query, args...)
}

// InstallmentsFilter narrows the operator pick lists: by status and/or by the
// calendar month the installment falls due in.
type InstallmentsFilter struct {
	Status    *domain.InstallmentStatus
	DueMonth  *int
	DueYear   *int
	PartnerID *string
}

func (r *InstallmentRepository) List(ctx context.Context, f InstallmentsFilter) ([]domain.Installment, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.DueMonth != nil {
		where = append(where, fmt.Sprintf("EXTRACT(MONTH FROM due_date) = $%d", i))
		args = append(args, *f.DueMonth)
		i++
	}
	if f.DueYear != nil {
		where = append(where, fmt.Sprintf("EXTRACT(YEAR FROM due_date) = $%d", i))
		args = append(args, *f.DueYear)
		i++
	}
	if f.PartnerID != nil {
		where = append(where, fmt.Sprintf("partner_id = $%d", i))
		args = append(args, *f.PartnerID)
		i++
	}

	query := `SELECT ` + installmentColumns + ` FROM installments WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY due_date, number`
	return r.queryInstallments(ctx, query, args...)
}

// SweepOverdue flips every pending installment whose due date lies before the
// cutoff to overdue. One statement, so a second sweep with the same cutoff is
// a no-op.
func (r *InstallmentRepository) SweepOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE installments SET status = $1 WHERE status = $2 AND due_date < $3`,
		domain.InstallmentStatusOverdue, domain.InstallmentStatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
