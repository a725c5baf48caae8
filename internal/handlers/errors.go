package handlers

import (
	"errors"
	"net/http"

	"github.com/hmehta/billbook/internal/httpx"
	"github.com/hmehta/billbook/internal/ledger"
	"github.com/hmehta/billbook/internal/store"
)

// writeError maps the core error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500; store failures surface as 503 so callers
// know to retry rather than assume the write is lost or applied.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, ledger.ErrInvalidAmount):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_amount", nil)
	case errors.Is(err, ledger.ErrReconciliationConflict):
		httpx.JSONError(w, http.StatusConflict, "reconciliation_conflict", nil)
	case errors.Is(err, store.ErrStorageUnavailable):
		httpx.JSONError(w, http.StatusServiceUnavailable, "storage_unavailable", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
