package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"coop-backoffice/internal/domain"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, partner_id, loan_id, installment_ids, payment_date,
	total_amount, capital_amount, interest_amount, partner_name, payment_type, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var (
		p      domain.Payment
		rawIDs []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.PartnerID,
		&p.LoanID,
		&rawIDs,
		&p.PaymentDate,
		&p.TotalAmount,
		&p.CapitalAmount,
		&p.InterestAmount,
		&p.PartnerName,
		&p.Type,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(rawIDs) > 0 {
		if err := json.Unmarshal(rawIDs, &p.InstallmentIDs); err != nil {
			return nil, fmt.Errorf("payment %s: decode installment ids: %w", p.ID, err)
		}
	}
	return &p, nil
}

func insertPaymentTx(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	ids := p.InstallmentIDs
	if ids == nil {
		ids = []string{}
	}
	rawIDs, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payments (id, partner_id, loan_id, installment_ids, payment_date,
			total_amount, capital_amount, interest_amount, partner_name, payment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query,
		p.ID, p.PartnerID, p.LoanID, rawIDs, p.PaymentDate,
		p.TotalAmount, p.CapitalAmount, p.InterestAmount, p.PartnerName, p.Type)
	return err
}

func insertReceiptTx(ctx context.Context, tx *sql.Tx, rc *domain.Receipt) error {
	query := `
		INSERT INTO receipts (id, partner_id, partner_name, loan_id, payment_id, kind, amount, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		rc.ID, rc.PartnerID, rc.PartnerName, rc.LoanID, rc.PaymentID, rc.Kind, rc.Amount, rc.Detail)
	return err
}

func markInstallmentsPaidTx(ctx context.Context, tx *sql.Tx, ids []string, paymentID string, paymentDate time.Time) error {
	args := []any{domain.InstallmentStatusPaid, paymentDate, paymentID}
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE installments SET status = $1, payment_date = $2, payment_id = $3
		WHERE id IN (` + placeholders(len(ids), 4) + `)`

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return fmt.Errorf("expected to mark %d installments, marked %d: %w", len(ids), n, domain.ErrNotFound)
	}
	return nil
}

// ApplyInstallmentPayment commits one installment payment: the selected
// installments flip to paid, the payment and its receipt are written and,
// when the payment settles the last open installment, the loan is finalized.
// All of it lands in a single transaction.
func (r *PaymentRepository) ApplyInstallmentPayment(ctx context.Context, p *domain.Payment, paymentDate time.Time, finalizeLoan bool, receipt *domain.Receipt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	if err := markInstallmentsPaidTx(ctx, tx, p.InstallmentIDs, p.ID, paymentDate); err != nil {
		return mapTxError(err)
	}
	if err := insertPaymentTx(ctx, tx, p); err != nil {
		return mapTxError(err)
	}
	if finalizeLoan {
		if _, err := tx.ExecContext(ctx,
			`UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`,
			p.LoanID, domain.LoanStatusFinalized,
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

// SettlementBatch is a bulk-by-period settlement: one payment and receipt per
// installment, plus the loans whose last open installment is in the batch.
type SettlementBatch struct {
	PaymentDate     time.Time
	Payments        []domain.Payment
	Receipts        []domain.Receipt
	FinalizeLoanIDs []string
}

// ApplySettlement commits a whole settlement batch at once. The batch is
// atomic, but the finalize decisions were computed from a read taken before
// this transaction; a concurrent writer on the same loan can race that
// decision.
func (r *PaymentRepository) ApplySettlement(ctx context.Context, b SettlementBatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	for i := range b.Payments {
		p := &b.Payments[i]
		if err := markInstallmentsPaidTx(ctx, tx, p.InstallmentIDs, p.ID, b.PaymentDate); err != nil {
			return mapTxError(err)
		}
		if err := insertPaymentTx(ctx, tx, p); err != nil {
			return mapTxError(err)
		}
	}
	for i := range b.Receipts {
		if err := insertReceiptTx(ctx, tx, &b.Receipts[i]); err != nil {
			return mapTxError(err)
		}
	}
	for _, loanID := range b.FinalizeLoanIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`,
			loanID, domain.LoanStatusFinalized,
		); err != nil {
			return mapTxError(err)
		}
	}

	return mapTxError(tx.Commit())
}

// revertedLoanStatus gives the status a loan returns to when one of its
// payments is undone: a finalized loan reopens as active, anything else keeps
// its pre-payment status.
func revertedLoanStatus(current domain.LoanStatus) domain.LoanStatus {
	if current == domain.LoanStatusFinalized {
		return domain.LoanStatusActive
	}
	return current
}

// Revert undoes a payment: referenced installments fall back to pending or
// overdue depending on their due date, a finalized loan reopens, a
// contribution's amount returns to the loan balance, and the payment row is
// deleted. All reads happen before any write, inside one transaction.
func (r *PaymentRepository) Revert(ctx context.Context, paymentID string, today time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}
	if err != nil {
		return mapTxError(err)
	}

	type instState struct {
		id      string
		dueDate time.Time
	}
	var insts []instState
	if len(p.InstallmentIDs) > 0 {
		args := make([]any, len(p.InstallmentIDs))
		for i, id := range p.InstallmentIDs {
			args[i] = id
		}
		rows, err := tx.QueryContext(ctx,
			`SELECT id, due_date FROM installments WHERE id IN (`+placeholders(len(args), 1)+`)`, args...)
		if err != nil {
			return mapTxError(err)
		}
		for rows.Next() {
			var st instState
			if err := rows.Scan(&st.id, &st.dueDate); err != nil {
				rows.Close()
				return mapTxError(err)
			}
			insts = append(insts, st)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return mapTxError(err)
		}
	}

	var (
		loanStatus domain.LoanStatus
		loanExists = true
	)
	err = tx.QueryRowContext(ctx, `SELECT status FROM loans WHERE id = $1`, p.LoanID).Scan(&loanStatus)
	if errors.Is(err, sql.ErrNoRows) {
		loanExists = false
	} else if err != nil {
		return mapTxError(err)
	}

	// reads done, writes start here
	for _, st := range insts {
		status := domain.InstallmentStatusPending
		if st.dueDate.Before(today) {
			status = domain.InstallmentStatusOverdue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE installments SET status = $2, payment_date = NULL, payment_id = NULL WHERE id = $1`,
			st.id, status,
		); err != nil {
			return mapTxError(err)
		}
	}

	if loanExists {
		if p.Type == domain.PaymentTypeContribution && p.TotalAmount.Valid {
			if _, err := tx.ExecContext(ctx,
				`UPDATE loans SET total_amount = total_amount + $2, status = $3, updated_at = now() WHERE id = $1`,
				p.LoanID, p.TotalAmount.Decimal, revertedLoanStatus(loanStatus),
			); err != nil {
				return mapTxError(err)
			}
		} else if loanStatus == domain.LoanStatusFinalized {
			if _, err := tx.ExecContext(ctx,
				`UPDATE loans SET status = $2, updated_at = now() WHERE id = $1`,
				p.LoanID, domain.LoanStatusActive,
			); err != nil {
				return mapTxError(err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, paymentID); err != nil {
		return mapTxError(err)
	}

	return mapTxError(tx.Commit())
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

type PaymentsFilter struct {
	LoanID    *string
	PartnerID *string
	Type      *domain.PaymentType
}

func (r *PaymentRepository) List(ctx context.Context, f PaymentsFilter) ([]domain.Payment, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.LoanID != nil {
		where = append(where, fmt.Sprintf("loan_id = $%d", i))
		args = append(args, *f.LoanID)
		i++
	}
	if f.PartnerID != nil {
		where = append(where, fmt.Sprintf("partner_id = $%d", i))
		args = append(args, *f.PartnerID)
		i++
	}
	if f.Type != nil {
		where = append(where, fmt.Sprintf("payment_type = $%d", i))
		args = append(args, *f.Type)
		i++
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListAll returns every payment row, oldest first. Used by the repair sweep.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateBatch rewrites date and breakdown fields for the given payments in one
// transaction. Only the fields the repair sweep touches are written.
func (r *PaymentRepository) UpdateBatch(ctx context.Context, payments []domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	query := `UPDATE payments SET payment_date = $2, capital_amount = $3, interest_amount = $4 WHERE id = $1`
	for i := range payments {
		p := &payments[i]
		if _, err := tx.ExecContext(ctx, query, p.ID, p.PaymentDate, p.CapitalAmount, p.InterestAmount); err != nil {
			return mapTxError(err)
		}
	}

	return mapTxError(tx.Commit())
}
