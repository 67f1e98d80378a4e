package rest

import (
	"net/http"
	"strconv"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"
)

func (h *Handler) listInstallments(w http.ResponseWriter, r *http.Request) {
	filter := repository.InstallmentsFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.InstallmentStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			ErrorBadRequest(w, "month must be 1-12")
			return
		}
		filter.DueMonth = &month
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			ErrorBadRequest(w, "year must be an integer")
			return
		}
		filter.DueYear = &year
	}
	if v := r.URL.Query().Get("partner_id"); v != "" {
		filter.PartnerID = &v
	}

	installments, err := h.installments.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]installmentResponse, 0, len(installments))
	for _, ins := range installments {
		out = append(out, toInstallmentResponse(ins))
	}
	Success(w, "installments", out)
}

type settlePeriodRequest struct {
	InstallmentIDs []string `json:"installment_ids"`
}

// settlePeriod marks a cross-loan selection of installments paid in one batch.
func (h *Handler) settlePeriod(w http.ResponseWriter, r *http.Request) {
	var req settlePeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	settled, err := h.payments.SettlePeriod(r.Context(), req.InstallmentIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "period settled", map[string]interface{}{"settled": settled})
}

type sweepRequest struct {
	ReferenceDate string `json:"reference_date"`
}

// sweepOverdue moves past-due pending installments to overdue. The reference
// date defaults to today; the nightly ticker calls the same service path.
func (h *Handler) sweepOverdue(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	reference, err := parseDate(req.ReferenceDate, "reference_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	swept, err := h.sweeper.Sweep(r.Context(), reference)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "overdue sweep finished", map[string]interface{}{"swept": swept})
}
