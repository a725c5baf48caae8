package models

// CustomerSummary is a derived view grouped from invoices by normalized
// customer name. It is recomputed on demand and never persisted, so the
// ledger stays the single source of truth.
type CustomerSummary struct {
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Address      string  `json:"address"`
	InvoiceCount int     `json:"invoice_count"`
	TotalBilled  float64 `json:"total_billed"`
	TotalPaid    float64 `json:"total_paid"`
	TotalDue     float64 `json:"total_due"`
}
