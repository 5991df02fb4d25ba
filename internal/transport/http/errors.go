package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/concert-ticketing/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeEventNameRequired  = "event_name_required"
	codeEventAlreadyExists = "event_already_exists"
	codeEventNotFound      = "event_not_found"
	codeTicketNotFound     = "ticket_not_found"
	codeSoldOut            = "sold_out"
	codeIncorrectPayment   = "incorrect_payment"
	codeIdentityRequired   = "caller_identity_required"
	codeAmountOutOfRange   = "amount_out_of_range"
	codeRateLimited        = "rate_limited"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
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

// writeDomainError maps service errors onto status codes. Anything it does
// not recognise is reported as a 500 without leaking the message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNameRequired):
		writeError(w, http.StatusBadRequest, codeEventNameRequired, err.Error())
	case errors.Is(err, domain.ErrIdentityRequired):
		writeError(w, http.StatusBadRequest, codeIdentityRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrAmountOutOfRange):
		writeError(w, http.StatusBadRequest, codeAmountOutOfRange, err.Error())
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case errors.Is(err, domain.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, codeTicketNotFound, err.Error())
	case errors.Is(err, domain.ErrEventAlreadyExists):
		writeError(w, http.StatusConflict, codeEventAlreadyExists, err.Error())
	case errors.Is(err, domain.ErrSoldOut):
		writeError(w, http.StatusConflict, codeSoldOut, err.Error())
	case errors.Is(err, domain.ErrIncorrectPayment):
		writeError(w, http.StatusPaymentRequired, codeIncorrectPayment, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
