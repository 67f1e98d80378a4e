package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coop-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

const loanColumns = `id, partner_id, partner_name, loan_type, total_amount, start_date,
	number_of_installments, interest_rate, fixed_interest_amount, status, created_at, updated_at`

func scanLoan(row interface{ Scan(...any) error }) (*domain.Loan, error) {
	var l domain.Loan
	if err := row.Scan(
		&l.ID,
		&l.PartnerID,
		&l.PartnerName,
		&l.Type,
		&l.TotalAmount,
		&l.StartDate,
		&l.NumberOfInstallments,
		&l.InterestRate,
		&l.FixedInterestAmount,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateWithSchedule persists a loan, its full installment schedule and the
// grant receipt in one transaction. A loan never exists without its schedule.
func (r *LoanRepository) CreateWithSchedule(ctx context.Context, l *domain.Loan, schedule []domain.Installment, receipt *domain.Receipt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	insertLoan := `
		INSERT INTO loans (id, partner_id, partner_name, loan_type, total_amount, start_date,
			number_of_installments, interest_rate, fixed_interest_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := tx.ExecContext(ctx, insertLoan,
		l.ID, l.PartnerID, l.PartnerName, l.Type, l.TotalAmount, l.StartDate,
		l.NumberOfInstallments, l.InterestRate, l.FixedInterestAmount, l.Status,
	); err != nil {
		return mapTxError(err)
	}

	insertInstallment := `
		INSERT INTO installments (id, loan_id, partner_id, number, due_date, status,
			capital_amount, interest_amount, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, ins := range schedule {
		if _, err := tx.ExecContext(ctx, insertInstallment,
			ins.ID, ins.LoanID, ins.PartnerID, ins.Number, ins.DueDate, ins.Status,
			ins.CapitalAmount, ins.InterestAmount, ins.TotalAmount,
		); err != nil {
			return mapTxError(err)
		}
	}

	if receipt != nil {
		if err := insertReceiptTx(ctx, tx, receipt); err != nil {
			return mapTxError(err)
		}
	}

	return mapTxError(tx.Commit())
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	l, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loan %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

type LoansFilter struct {
	PartnerID *string
	Status    *domain.LoanStatus
}

func (r *LoanRepository) List(ctx context.Context, f LoansFilter) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE 1=1`
	args := []any{}
	i := 1

	if f.PartnerID != nil {
		query += fmt.Sprintf(" AND partner_id = $%d", i)
		args = append(args, *f.PartnerID)
		i++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, *f.Status)
		i++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// Contribute applies an individual contribution against the loan balance:
// the row is locked, the balance re-read, the overpay rule checked, the new
// balance written and the payment recorded, all in one transaction. Returns
// the new balance.
func (r *LoanRepository) Contribute(ctx context.Context, loanID string, amount decimal.Decimal, p *domain.Payment) (decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer rollback(tx)

	var (
		balance decimal.Decimal
		status  domain.LoanStatus
	)
	row := tx.QueryRowContext(ctx,
		`SELECT total_amount, status FROM loans WHERE id = $1 FOR UPDATE NOWAIT`, loanID)
	if err := row.Scan(&balance, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("loan %s: %w", loanID, domain.ErrNotFound)
		}
		return decimal.Zero, mapTxError(err)
	}

	if amount.GreaterThan(balance) {
		return decimal.Zero, domain.NewValidationError("amount",
			fmt.Sprintf("contribution %s exceeds outstanding balance %s",
				amount.StringFixed(2), balance.StringFixed(2)))
	}

	newBalance := balance.Sub(amount)
	newStatus := status
	if newBalance.LessThanOrEqual(decimal.Zero) {
		newStatus = domain.LoanStatusFinalized
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET total_amount = $2, status = $3, updated_at = now() WHERE id = $1`,
		loanID, newBalance, newStatus,
	); err != nil {
		return decimal.Zero, mapTxError(err)
	}

	if err := insertPaymentTx(ctx, tx, p); err != nil {
		return decimal.Zero, mapTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, mapTxError(err)
	}
	return newBalance, nil
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, id string, status domain.LoanStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("loan %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
