package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/commons"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
)

type validatable interface {
	Validate() error
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess[T any](w http.ResponseWriter, status int, message string, data T) {
	writeJSON(w, status, commons.SuccessResponse(message, data))
}

func writePage[T any](w http.ResponseWriter, message string, data T, page commons.Page) {
	writeJSON(w, http.StatusOK, commons.PagedResponse(message, data, page))
}

// decode reads and validates a request body, writing the 400 itself on
// failure.
func decode(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[struct{}]("invalid request body", err.Error()))
		return false
	}
	logRequest(r, req)
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[struct{}]("validation failed", err.Error()))
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, domain.ErrRateNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrWebhookSecretMismatch):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logError(r, err)
		writeJSON(w, status, commons.ErrorResponse[struct{}]("internal server error"))
		return
	}
	writeJSON(w, status, commons.ErrorResponse[struct{}](http.StatusText(status), err.Error()))
}
