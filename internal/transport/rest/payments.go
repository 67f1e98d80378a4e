package rest

import (
	"net/http"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"
	"coop-backoffice/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

type payInstallmentsRequest struct {
	InstallmentIDs []string `json:"installment_ids"`
	PaymentDate    string   `json:"payment_date"`
}

// payInstallments settles selected installments of one loan with one payment.
func (h *Handler) payInstallments(w http.ResponseWriter, r *http.Request) {
	var req payInstallmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	paymentDate, err := parseDate(req.PaymentDate, "payment_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payment, err := h.payments.PayInstallments(r.Context(), chi.URLParam(r, "loan_id"), req.InstallmentIDs, paymentDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "installments paid", toPaymentResponse(*payment))
}

type contributeRequest struct {
	PartnerID   string `json:"partner_id"`
	Amount      any    `json:"amount"`
	PaymentDate string `json:"payment_date"`
}

// contribute applies a free-form amount against the loan balance.
func (h *Handler) contribute(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	paymentDate, err := parseDate(req.PaymentDate, "payment_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payment, newBalance, err := h.payments.Contribute(r.Context(), chi.URLParam(r, "loan_id"), req.PartnerID, amount, paymentDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "contribution applied", map[string]interface{}{
		"payment":     toPaymentResponse(*payment),
		"new_balance": newBalance.StringFixed(2),
	})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	filter := repository.PaymentsFilter{}
	if v := r.URL.Query().Get("loan_id"); v != "" {
		filter.LoanID = &v
	}
	if v := r.URL.Query().Get("partner_id"); v != "" {
		filter.PartnerID = &v
	}
	if v := r.URL.Query().Get("type"); v != "" {
		paymentType := domain.PaymentType(v)
		filter.Type = &paymentType
	}

	payments, err := h.payments.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	Success(w, "payments", out)
}

func (h *Handler) revertPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.Revert(r.Context(), chi.URLParam(r, "payment_id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "payment reverted", nil)
}

// repairPayments runs the historical data hygiene sweep over all payments.
func (h *Handler) repairPayments(w http.ResponseWriter, r *http.Request) {
	sessionID, err := auth.GetSessionID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	corrected, auditLog, err := h.repair.Repair(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "repair sweep finished", map[string]interface{}{
		"corrected": corrected,
		"audit_log": auditLog,
	})
}
