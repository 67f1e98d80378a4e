package rest

import (
	"net/http"

	"coop-backoffice/internal/repository"
	"coop-backoffice/internal/service"

	"github.com/go-chi/chi/v5"
)

type partnerRequest struct {
	FirstName            string  `json:"first_name"`
	LastName             string  `json:"last_name"`
	IdentificationNumber *string `json:"identification_number"`
	Alias                *string `json:"alias"`
}

func (req partnerRequest) toInput() service.PartnerInput {
	return service.PartnerInput{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		IdentificationNumber: req.IdentificationNumber,
		Alias:                req.Alias,
	}
}

func (h *Handler) createPartner(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	partner, err := h.partners.Register(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "partner registered", toPartnerResponse(*partner))
}

func (h *Handler) getPartner(w http.ResponseWriter, r *http.Request) {
	partner, err := h.partners.Get(r.Context(), chi.URLParam(r, "partner_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "partner", toPartnerResponse(*partner))
}

func (h *Handler) listPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.partners.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "partners", toPartnerResponses(partners))
}

func (h *Handler) updatePartner(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	partner, err := h.partners.Update(r.Context(), chi.URLParam(r, "partner_id"), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "partner updated", toPartnerResponse(*partner))
}

func (h *Handler) deletePartner(w http.ResponseWriter, r *http.Request) {
	if err := h.partners.Remove(r.Context(), chi.URLParam(r, "partner_id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "partner deleted", nil)
}

func (h *Handler) listPartnerLoans(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "partner_id")

	// 404 for an unknown partner, not an empty list
	if _, err := h.partners.Get(r.Context(), partnerID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	loans, err := h.loans.List(r.Context(), repository.LoansFilter{PartnerID: &partnerID})
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
