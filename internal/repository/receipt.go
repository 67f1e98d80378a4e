package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"coop-backoffice/internal/domain"
)

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

const receiptColumns = `id, partner_id, partner_name, loan_id, payment_id, kind, amount, detail, created_at`

type ReceiptsFilter struct {
	PartnerID *string
	LoanID    *string
	Kind      *domain.ReceiptKind
}

func (r *ReceiptRepository) List(ctx context.Context, f ReceiptsFilter) ([]domain.Receipt, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.PartnerID != nil {
		where = append(where, fmt.Sprintf("partner_id = $%d", i))
		args = append(args, *f.PartnerID)
		i++
	}
	if f.LoanID != nil {
		where = append(where, fmt.Sprintf("loan_id = $%d", i))
		args = append(args, *f.LoanID)
		i++
	}
	if f.Kind != nil {
		where = append(where, fmt.Sprintf("kind = $%d", i))
		args = append(args, *f.Kind)
		i++
	}

	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Receipt
	for rows.Next() {
		var rc domain.Receipt
		if err := rows.Scan(
			&rc.ID,
			&rc.PartnerID,
			&rc.PartnerName,
			&rc.LoanID,
			&rc.PaymentID,
			&rc.Kind,
			&rc.Amount,
			&rc.Detail,
			&rc.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
