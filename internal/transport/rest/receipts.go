package rest

import (
	"net/http"

	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"
)

func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	filter := repository.ReceiptsFilter{}
	if v := r.URL.Query().Get("partner_id"); v != "" {
		filter.PartnerID = &v
	}
	if v := r.URL.Query().Get("loan_id"); v != "" {
		filter.LoanID = &v
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind := domain.ReceiptKind(v)
		filter.Kind = &kind
	}

	receipts, err := h.receipts.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]receiptResponse, 0, len(receipts))
	for _, rc := range receipts {
		out = append(out, toReceiptResponse(rc))
	}
	Success(w, "receipts", out)
}
