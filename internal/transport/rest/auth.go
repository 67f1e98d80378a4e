package rest

import (
	"errors"
	"net/http"
	"time"

	"coop-backoffice/internal/service"
)

type unlockRequest struct {
	PIN string `json:"pin"`
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.PIN == "" {
		ErrorBadRequest(w, "pin is required")
		return
	}

	token, expiresAt, err := h.auth.Unlock(r.Context(), req.PIN)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPIN) {
			ErrorUnauthorized(w, "invalid pin")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	Success(w, "unlocked", map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}
