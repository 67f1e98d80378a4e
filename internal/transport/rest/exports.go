package rest

import (
	"net/http"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"
	"coop-backoffice/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

type paymentsExportRequest struct {
	Fields    []string `json:"fields"`
	LoanID    *string  `json:"loan_id"`
	PartnerID *string  `json:"partner_id"`
	Type      *string  `json:"type"`
}

func (req *paymentsExportRequest) toFilter() repository.PaymentsFilter {
	f := repository.PaymentsFilter{
		LoanID:    req.LoanID,
		PartnerID: req.PartnerID,
	}
	if req.Type != nil && *req.Type != "" {
		paymentType := domain.PaymentType(*req.Type)
		f.Type = &paymentType
	}
	return f
}

func (h *Handler) exportPayments(w http.ResponseWriter, r *http.Request) {
	var req paymentsExportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	sessionID, err := auth.GetSessionID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportID, err := h.exports.StartPaymentsExport(r.Context(), req.Fields, req.toFilter(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	SuccessAccepted(w, "export queued", map[string]interface{}{"export_id": exportID})
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	sessionID, err := auth.GetSessionID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	statuses, err := h.exports.ListExports(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "exports", statuses)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := auth.GetSessionID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	status, err := h.exports.GetExport(r.Context(), chi.URLParam(r, "export_id"), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	Success(w, "export", status)
}
