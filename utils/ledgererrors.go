package utils

import (
	"errors"
	"net/http"

	"courtside/ledger"
)

// RespondLedgerError maps the ledger error taxonomy onto HTTP statuses.
// Client errors keep their message so the app can show the specific reason;
// backend failures are reported generically.
func RespondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNoIdentity):
		RespondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		RespondWithError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ledger.ErrNotAvailable),
		errors.Is(err, ledger.ErrInvalidState):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrUnauthorized):
		RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrClassNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		RespondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
