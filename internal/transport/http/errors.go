package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
)

const (
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidQuantity     = "invalid_quantity"
	codeInvalidHolder       = "invalid_holder"
	codeInvalidID           = "invalid_id"
	codeOrderRefRequired    = "order_reference_required"
	codeBatchNotFound       = "batch_not_found"
	codeReservationNotFound = "reservation_not_found"
	codeCapacityExceeded    = "capacity_exceeded"
	codeAlreadyResolved     = "already_resolved"
	codeBatchTerminal       = "batch_terminal"
	codeTotalBelowCommitted = "total_below_committed"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps domain errors to HTTP responses. Out-of-stock and
// expired-hold-at-checkout get distinct codes so the storefront can show a
// friendly signal instead of a generic failure.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidHolder):
		writeError(w, http.StatusBadRequest, codeInvalidHolder, err.Error())
	case errors.Is(err, domain.ErrOrderReferenceRequired):
		writeError(w, http.StatusBadRequest, codeOrderRefRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrBatchNotFound):
		writeError(w, http.StatusNotFound, codeBatchNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, codeCapacityExceeded, err.Error())
	case errors.Is(err, domain.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, codeAlreadyResolved, err.Error())
	case errors.Is(err, domain.ErrBatchTerminal):
		writeError(w, http.StatusConflict, codeBatchTerminal, err.Error())
	case errors.Is(err, domain.ErrInvalidTotalQuantity):
		writeError(w, http.StatusConflict, codeTotalBelowCommitted, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
