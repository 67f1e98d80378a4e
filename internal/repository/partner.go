package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coop-backoffice/internal/domain"
)

type PartnerRepository struct {
	db *sql.DB
}

func NewPartnerRepository(db *sql.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

const partnerColumns = `id, first_name, last_name, identification_number, alias, created_at, updated_at`

func scanPartner(row interface{ Scan(...any) error }) (*domain.Partner, error) {
	var p domain.Partner
	if err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.IdentificationNumber,
		&p.Alias,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartnerRepository) Create(ctx context.Context, p *domain.Partner) error {
	query := `
		INSERT INTO partners (id, first_name, last_name, identification_number, alias)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.FirstName, p.LastName, p.IdentificationNumber, p.Alias)
	return err
}

func (r *PartnerRepository) GetByID(ctx context.Context, id string) (*domain.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE id = $1`

	p, err := scanPartner(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("partner %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PartnerRepository) List(ctx context.Context) ([]domain.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners ORDER BY last_name, first_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PartnerRepository) Update(ctx context.Context, p *domain.Partner) error {
	query := `
		UPDATE partners
		SET first_name = $2, last_name = $3, identification_number = $4, alias = $5, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, p.ID, p.FirstName, p.LastName, p.IdentificationNumber, p.Alias)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("partner %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// FindByFullName matches a partner by exact "First Last" name. Used by the
// spreadsheet loan import; duplicates resolve to the first match by creation
// order.
func (r *PartnerRepository) FindByFullName(ctx context.Context, fullName string) (*domain.Partner, error) {
	query := `
		SELECT ` + partnerColumns + `
		FROM partners
		WHERE trim(first_name || ' ' || last_name) = $1
		ORDER BY created_at
		LIMIT 1
	`

	p, err := scanPartner(r.db.QueryRowContext(ctx, query, fullName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("partner %q: %w", fullName, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the partner and all owned loans and installments in one
// transaction. Payments and receipts stay: they are the money trail.
func (r *PartnerRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM installments WHERE loan_id IN (SELECT id FROM loans WHERE partner_id = $1)`, id); err != nil {
		return mapTxError(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE partner_id = $1`, id); err != nil {
		return mapTxError(err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM partners WHERE id = $1`, id)
	if err != nil {
		return mapTxError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("partner %s: %w", id, domain.ErrNotFound)
	}

	return mapTxError(tx.Commit())
}
