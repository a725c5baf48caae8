package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hmehta/billbook/internal/httpx"
	"github.com/hmehta/billbook/internal/ledger"
	"github.com/hmehta/billbook/internal/models"
	"github.com/hmehta/billbook/internal/store"
)

// PaymentHandler records payments through the ledger engine and returns
// through the store directly (returns carry no reconciliation arithmetic).
type PaymentHandler struct {
	Store  store.Store
	Ledger *ledger.Engine
}

func NewPaymentHandler(st store.Store, eng *ledger.Engine) *PaymentHandler {
	return &PaymentHandler{Store: st, Ledger: eng}
}

type addPaymentReq struct {
	InvoiceNo string  `json:"invoice_no"`
	Amount    float64 `json:"amount"`
}

// Add: POST /payments – applies a payment atomically with the invoice
// update. The response carries the refreshed balance so the client never
// computes it locally.
func (h *PaymentHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(req.InvoiceNo) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_no", nil)
		return
	}
	inv, err := h.Ledger.ApplyPayment(r.Context(), req.InvoiceNo, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"invoice_no":  inv.InvoiceNo,
		"amount_paid": inv.AmountPaid,
		"balance_due": inv.BalanceDue(),
	})
}

// List: GET /payments?invoice_no=...
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	no := strings.TrimSpace(r.URL.Query().Get("invoice_no"))
	if no == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_no", nil)
		return
	}
	ps, err := h.Store.ListPaymentsFor(r.Context(), no)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": ps})
}

type addReturnReq struct {
	InvoiceNo   string  `json:"invoice_no"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// AddReturn: POST /returns – append-only, same discipline as payments.
func (h *PaymentHandler) AddReturn(w http.ResponseWriter, r *http.Request) {
	var req addReturnReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(req.InvoiceNo) == "" || req.Amount <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"invoice_no": "required", "amount": "must be positive"})
		return
	}
	// The invoice must exist; returns never dangle.
	if _, err := h.Store.GetInvoice(r.Context(), req.InvoiceNo); err != nil {
		writeError(w, err)
		return
	}
	date := time.Now()
	if req.Date != "" {
		var ok bool
		if date, ok = parseDate(req.Date); !ok {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"date": "expected YYYY-MM-DD"})
			return
		}
	}
	ret := &models.Return{
		ID:          uuid.NewString(),
		InvoiceNo:   req.InvoiceNo,
		Date:        date,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if err := h.Store.AddReturn(r.Context(), ret); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

// ListReturns: GET /returns?invoice_no=...
func (h *PaymentHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
	no := strings.TrimSpace(r.URL.Query().Get("invoice_no"))
	if no == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_no", nil)
		return
	}
	rs, err := h.Store.ListReturnsFor(r.Context(), no)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rs})
}
