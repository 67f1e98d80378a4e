package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"coop-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

// decodeJSON decodes the request body into dst; an empty body is allowed and
// leaves dst zero-valued.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		return domain.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// parseAmount accepts a monetary amount as either a JSON number or a string.
func parseAmount(v any, field string) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		if t == "" {
			return decimal.Zero, domain.NewValidationError(field, "amount is required")
		}
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero, domain.NewValidationError(field, "amount must be a number")
		}
		return d, nil
	case nil:
		return decimal.Zero, domain.NewValidationError(field, "amount is required")
	default:
		return decimal.Zero, domain.NewValidationError(field, "amount must be a number or string")
	}
}

// parseOptionalAmount is parseAmount for fields that may be absent.
func parseOptionalAmount(v any, field string) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, nil
	}
	return parseAmount(v, field)
}

// parseDate accepts YYYY-MM-DD or full RFC3339; empty means "not provided".
func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.NewValidationError(field, "must be YYYY-MM-DD")
}

// writeServiceError maps domain errors onto the response envelope. Anything
// unrecognized is treated as an internal failure and logged with context.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		ErrorBadRequest(w, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		ErrorNotFound(w, err.Error())
	case errors.Is(err, domain.ErrConflict):
		ErrorConflict(w, "the record was modified concurrently, please retry")
	default:
		log.Printf("[HTTP] %s %s: %v", r.Method, r.URL.Path, err)
		ErrorInternal(w, "internal error")
	}
}
