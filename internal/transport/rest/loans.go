package rest

import (
	"net/http"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"
	"coop-backoffice/internal/service"

	"github.com/go-chi/chi/v5"
)

type createLoanRequest struct {
	PartnerID            string `json:"partner_id"`
	Type                 string `json:"type"`
	Amount               any    `json:"amount"`
	StartDate            string `json:"start_date"`
	NumberOfInstallments int    `json:"number_of_installments"`
	InterestRate         any    `json:"interest_rate"`
	FixedInterestAmount  any    `json:"fixed_interest_amount"`
}

func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.PartnerID == "" {
		ErrorBadRequest(w, "partner_id is required")
		return
	}

	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rate, err := parseOptionalAmount(req.InterestRate, "interest_rate")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	fixed, err := parseOptionalAmount(req.FixedInterestAmount, "fixed_interest_amount")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	loanType := domain.LoanTypeStandard
	if req.Type == string(domain.LoanTypeCustom) {
		loanType = domain.LoanTypeCustom
	}

	loan, err := h.loans.Grant(r.Context(), service.CreateLoanInput{
		PartnerID:     req.PartnerID,
		Type:          loanType,
		Amount:        amount,
		StartDate:     start,
		TermMonths:    req.NumberOfInstallments,
		InterestRate:  rate,
		FixedInterest: fixed,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "loan granted", toLoanResponse(*loan, nil))
}

func (h *Handler) getLoan(w http.ResponseWriter, r *http.Request) {
	loan, schedule, err := h.loans.Get(r.Context(), chi.URLParam(r, "loan_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "loan", toLoanResponse(*loan, schedule))
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	filter := repository.LoansFilter{}
	if v := r.URL.Query().Get("partner_id"); v != "" {
		filter.PartnerID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.LoanStatus(v)
		filter.Status = &status
	}

	loans, err := h.loans.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, toLoanResponse(l, nil))
	}
	Success(w, "loans", out)
}
