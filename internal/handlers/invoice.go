package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hmehta/billbook/internal/httpx"
	"github.com/hmehta/billbook/internal/models"
	"github.com/hmehta/billbook/internal/money"
	"github.com/hmehta/billbook/internal/recyclebin"
	"github.com/hmehta/billbook/internal/services"
	"github.com/hmehta/billbook/internal/statement"
	"github.com/hmehta/billbook/internal/store"
)

// InvoiceHandler serves the invoice collection. Deletion is delegated to the
// recycle bin so nothing on this surface can hard-delete a record.
type InvoiceHandler struct {
	Store store.Store
	Bin   *recyclebin.Bin
}

func NewInvoiceHandler(st store.Store, bin *recyclebin.Bin) *InvoiceHandler {
	return &InvoiceHandler{Store: st, Bin: bin}
}

type lineItemReq struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

type saveInvoiceReq struct {
	InvoiceNo       string        `json:"invoice_no"`
	InvoiceDate     string        `json:"invoice_date"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerAddress string        `json:"customer_address"`
	DiscountPct     float64       `json:"discount_percent"`
	Items           []lineItemReq `json:"items"`
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Save: POST /invoices – creates or overwrites the invoice under its number
// (upsert by design). Totals are recomputed here from the submitted lines;
// the client never supplies them.
func (h *InvoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveInvoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.InvoiceNo = strings.TrimSpace(req.InvoiceNo)
	if req.InvoiceNo == "" || len(req.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"invoice_no": "required", "items": "required"})
		return
	}
	if req.DiscountPct < 0 || req.DiscountPct > 100 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"discount_percent": "must be between 0 and 100"})
		return
	}
	date := time.Now()
	if req.InvoiceDate != "" {
		var ok bool
		if date, ok = parseDate(req.InvoiceDate); !ok {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"invoice_date": "expected YYYY-MM-DD"})
			return
		}
	}

	items := make([]models.LineItem, 0, len(req.Items))
	for i, it := range req.Items {
		items = append(items, models.LineItem{
			Seq:         i + 1,
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			Amount:      money.LineAmount(it.Quantity, it.Rate),
		})
	}
	totals, clamped := money.ComputeTotals(items, req.DiscountPct)

	inv := &models.Invoice{
		InvoiceNo:      req.InvoiceNo,
		InvoiceDate:    date,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerAddr:   req.CustomerAddress,
		Items:          items,
		DiscountPct:    req.DiscountPct,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		RoundOff:       totals.RoundOff,
		GrandTotal:     totals.GrandTotal,
	}
	// An overwrite keeps the payment history, so carry the paid figure over.
	if existing, err := h.Store.GetInvoice(r.Context(), req.InvoiceNo); err == nil {
		inv.AmountPaid = existing.AmountPaid
	}
	if err := h.Store.SaveInvoice(r.Context(), inv); err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"invoice_no":  inv.InvoiceNo,
		"grand_total": inv.GrandTotal,
		"round_off":   inv.RoundOff,
		"balance_due": inv.BalanceDue(),
	}
	if clamped {
		resp["warning"] = "negative quantity or rate clamped to zero"
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

// List: GET /invoices – invoice date descending, with pagination and
// customer-name search.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	opts := store.ListOptions{Query: r.URL.Query().Get("q"), Limit: limit, Offset: offset}
	invs, total, err := h.Store.ListInvoices(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(invs))
	for i := range invs {
		items = append(items, invoiceJSON(&invs[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /invoices/get?no=...
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	no := strings.TrimSpace(r.URL.Query().Get("no"))
	if no == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_no", nil)
		return
	}
	inv, err := h.Store.GetInvoice(r.Context(), no)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceJSON(inv))
}

// Delete: POST /invoices/delete?no=... – soft delete into the recycle bin.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	no := strings.TrimSpace(r.URL.Query().Get("no"))
	if no == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_no", nil)
		return
	}
	item, err := h.Bin.SoftDeleteInvoice(r.Context(), no)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted", "tombstone_id": item.ID})
}

// Statement: GET /invoices/statement?no=... – plain-text printable
// statement. A failed payment listing degrades to an empty history rather
// than aborting the render; that is the one sanctioned read-side recovery.
func (h *InvoiceHandler) Statement(w http.ResponseWriter, r *http.Request) {
	no := strings.TrimSpace(r.URL.Query().Get("no"))
	if no == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_invoice_no", nil)
		return
	}
	inv, err := h.Store.GetInvoice(r.Context(), no)
	if err != nil {
		writeError(w, err)
		return
	}
	payments, err := h.Store.ListPaymentsFor(r.Context(), no)
	if err != nil {
		payments = nil
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(statement.Render(inv, payments)))
}

// Customers: GET /customers – the derived per-customer aggregate view,
// recomputed from the invoice stream on every call.
func (h *InvoiceHandler) Customers(w http.ResponseWriter, r *http.Request) {
	invs, _, err := h.Store.ListInvoices(r.Context(), store.ListOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": services.GroupCustomers(invs)})
}

// invoiceJSON augments the model's fields with the derived balance, which
// has no column of its own.
func invoiceJSON(inv *models.Invoice) map[string]any {
	return map[string]any{
		"invoice_no":       inv.InvoiceNo,
		"invoice_date":     inv.InvoiceDate,
		"customer_name":    inv.CustomerName,
		"customer_phone":   inv.CustomerPhone,
		"customer_address": inv.CustomerAddr,
		"items":            inv.Items,
		"discount_percent": inv.DiscountPct,
		"subtotal":         inv.Subtotal,
		"discount_amount":  inv.DiscountAmount,
		"round_off":        inv.RoundOff,
		"grand_total":      inv.GrandTotal,
		"amount_paid":      inv.AmountPaid,
		"balance_due":      inv.BalanceDue(),
	}
}
