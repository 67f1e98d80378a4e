package rest

import (
	"time"

	"coop-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

type partnerResponse struct {
	ID                   string     `json:"id"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	IdentificationNumber *string    `json:"identification_number,omitempty"`
	Alias                *string    `json:"alias,omitempty"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
}

func toPartnerResponse(p domain.Partner) partnerResponse {
	return partnerResponse{
		ID:                   p.ID,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		IdentificationNumber: p.IdentificationNumber,
		Alias:                p.Alias,
		CreatedAt:            p.CreatedAt,
	}
}

func toPartnerResponses(partners []domain.Partner) []partnerResponse {
	out := make([]partnerResponse, 0, len(partners))
	for _, p := range partners {
		out = append(out, toPartnerResponse(p))
	}
	return out
}

type loanResponse struct {
	ID                   string                `json:"id"`
	PartnerID            string                `json:"partner_id"`
	PartnerName          string                `json:"partner_name"`
	Type                 string                `json:"type"`
	TotalAmount          string                `json:"total_amount"`
	StartDate            time.Time             `json:"start_date"`
	NumberOfInstallments int                   `json:"number_of_installments"`
	InterestRate         string                `json:"interest_rate"`
	FixedInterestAmount  string                `json:"fixed_interest_amount"`
	Status               string                `json:"status"`
	Installments         []installmentResponse `json:"installments,omitempty"`
}

func toLoanResponse(l domain.Loan, schedule []domain.Installment) loanResponse {
	resp := loanResponse{
		ID:                   l.ID,
		PartnerID:            l.PartnerID,
		PartnerName:          l.PartnerName,
		Type:                 string(l.Type),
		TotalAmount:          l.TotalAmount.StringFixed(2),
		StartDate:            l.StartDate,
		NumberOfInstallments: l.NumberOfInstallments,
		InterestRate:         l.InterestRate.StringFixed(2),
		FixedInterestAmount:  l.FixedInterestAmount.StringFixed(2),
		Status:               string(l.Status),
	}
	for _, ins := range schedule {
		resp.Installments = append(resp.Installments, toInstallmentResponse(ins))
	}
	return resp
}

type installmentResponse struct {
	ID             string     `json:"id"`
	LoanID         string     `json:"loan_id"`
	PartnerID      string     `json:"partner_id"`
	Number         int        `json:"number"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	CapitalAmount  string     `json:"capital_amount"`
	InterestAmount string     `json:"interest_amount"`
	TotalAmount    string     `json:"total_amount"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
	PaymentID      *string    `json:"payment_id,omitempty"`
}

func toInstallmentResponse(i domain.Installment) installmentResponse {
	return installmentResponse{
		ID:             i.ID,
		LoanID:         i.LoanID,
		PartnerID:      i.PartnerID,
		Number:         i.Number,
		DueDate:        i.DueDate,
		Status:         string(i.Status),
		CapitalAmount:  i.CapitalAmount.StringFixed(2),
		InterestAmount: i.InterestAmount.StringFixed(2),
		TotalAmount:    i.TotalAmount.StringFixed(2),
		PaymentDate:    i.PaymentDate,
		PaymentID:      i.PaymentID,
	}
}

type paymentResponse struct {
	ID             string     `json:"id"`
	PartnerID      string     `json:"partner_id"`
	PartnerName    string     `json:"partner_name"`
	LoanID         string     `json:"loan_id"`
	InstallmentIDs []string   `json:"installment_ids,omitempty"`
	PaymentDate    string     `json:"payment_date"`
	TotalAmount    *string    `json:"total_amount"`
	CapitalAmount  *string    `json:"capital_amount"`
	InterestAmount *string    `json:"interest_amount"`
	Type           string     `json:"type"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

func nullAmount(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

func toPaymentResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		PartnerID:      p.PartnerID,
		PartnerName:    p.PartnerName,
		LoanID:         p.LoanID,
		InstallmentIDs: p.InstallmentIDs,
		PaymentDate:    p.PaymentDate,
		TotalAmount:    nullAmount(p.TotalAmount),
		CapitalAmount:  nullAmount(p.CapitalAmount),
		InterestAmount: nullAmount(p.InterestAmount),
		Type:           string(p.Type),
		CreatedAt:      p.CreatedAt,
	}
}

type receiptResponse struct {
	ID          string     `json:"id"`
	PartnerID   string     `json:"partner_id"`
	PartnerName string     `json:"partner_name"`
	LoanID      string     `json:"loan_id"`
	PaymentID   *string    `json:"payment_id,omitempty"`
	Kind        string     `json:"kind"`
	Amount      string     `json:"amount"`
	Detail      string     `json:"detail"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

func toReceiptResponse(rc domain.Receipt) receiptResponse {
	return receiptResponse{
		ID:          rc.ID,
		PartnerID:   rc.PartnerID,
		PartnerName: rc.PartnerName,
		LoanID:      rc.LoanID,
		PaymentID:   rc.PaymentID,
		Kind:        string(rc.Kind),
		Amount:      rc.Amount.StringFixed(2),
		Detail:      rc.Detail,
		CreatedAt:   rc.CreatedAt,
	}
}
