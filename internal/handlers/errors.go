package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/handlers/render"
	"github.com/nkiryanov/creditledger/internal/logger"
)

// Most specific errors first, classes are checked after
var knownErrors = []struct {
	err     error
	code    int
	message string
}{
	{apperrors.ErrAccountNotFound, http.StatusNotFound, "User not found"},
	{apperrors.ErrBillNotFound, http.StatusNotFound, "Bill not found"},
	{apperrors.ErrPaymentNotFound, http.StatusNotFound, "Payment not found"},
	{apperrors.ErrRewardNotFound, http.StatusNotFound, "Reward not found"},
	{apperrors.ErrCardNotFound, http.StatusNotFound, "Card not found"},
	{apperrors.ErrBillAlreadyPaid, http.StatusConflict, "Bill already paid"},
	{apperrors.ErrCardExists, http.StatusConflict, "Card already exists"},
	{apperrors.ErrConcurrentUpdate, http.StatusConflict, "Balance is being updated, try again"},
	{apperrors.ErrRewardInactive, http.StatusBadRequest, "Reward is not active"},
	{apperrors.ErrRewardOutOfStock, http.StatusBadRequest, "Reward is out of stock"},
	{apperrors.ErrAmountNotPositive, http.StatusBadRequest, "Amount must be positive"},
	{apperrors.ErrAmountOutOfRange, http.StatusBadRequest, "Amount is out of range"},
	{apperrors.ErrNotFound, http.StatusNotFound, "Not found"},
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{apperrors.ErrInactiveResource, http.StatusBadRequest, "Resource is not active"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, "Validation failed"},
	{apperrors.ErrConflict, http.StatusConflict, "Conflict"},
}

// Render ledger error with matching status
// Unknown errors are logged and hidden behind 500
func renderError(w http.ResponseWriter, l logger.Logger, err error) {
	var insufficient *apperrors.InsufficientFundsError
	if errors.As(err, &insufficient) {
		what := "credit"
		if errors.Is(insufficient.Kind, apperrors.ErrInsufficientFunds) {
			what = "balance"
		}
		render.ServiceError(w,
			fmt.Sprintf("Insufficient %s. Available: %s, Required: %s", what, insufficient.Available, insufficient.Required),
			http.StatusBadRequest,
		)
		return
	}

	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			render.ServiceError(w, known.message, known.code)
			return
		}
	}

	l.Error("Request failed", "error", err)
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}

// Read uuid from path. Renders 400 and returns false if it is malformed
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		render.ServiceError(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return id, false
	}
	return id, true
}

// Optional uuid from query. Missing value is uuid.Nil
func uuidQuery(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, true
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		render.ServiceError(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return id, false
	}
	return id, true
}
