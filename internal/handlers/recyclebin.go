package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hmehta/billbook/internal/httpx"
	"github.com/hmehta/billbook/internal/recyclebin"
)

type RecycleBinHandler struct {
	Bin *recyclebin.Bin
}

func NewRecycleBinHandler(bin *recyclebin.Bin) *RecycleBinHandler {
	return &RecycleBinHandler{Bin: bin}
}

// List: GET /recycle-bin – most recently deleted first, optional type
// filter and customer-name search.
func (h *RecycleBinHandler) List(w http.ResponseWriter, r *http.Request) {
	f := recyclebin.ListFilter{
		EntityType: strings.TrimSpace(r.URL.Query().Get("type")),
		Query:      r.URL.Query().Get("q"),
	}
	items, err := h.Bin.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// Restore: POST /recycle-bin/restore?id=...
func (h *RecycleBinHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	if err := h.Bin.Restore(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// Purge: POST /recycle-bin/purge?id=... – irreversible.
func (h *RecycleBinHandler) Purge(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	if err := h.Bin.Purge(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

// Empty: POST /recycle-bin/empty – purges everything, reporting items that
// could not be removed instead of dropping them silently.
func (h *RecycleBinHandler) Empty(w http.ResponseWriter, r *http.Request) {
	count, err := h.Bin.EmptyBin(r.Context())
	if err != nil {
		var report *recyclebin.PurgeReport
		if errors.As(err, &report) {
			httpx.JSON(w, http.StatusMultiStatus, map[string]any{
				"removed": count,
				"failed":  report.FailedIDs,
			})
			return
		}
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"removed": count})
}
