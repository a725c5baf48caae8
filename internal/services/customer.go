package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hmehta/billbook/internal/models"
)

// GroupCustomers folds the invoice stream into per-customer aggregates.
// Grouping is by normalized name (trimmed, lower-cased, single-spaced). This
// is a pure projection recomputed on demand; persisting it would create a
// second source of truth that can drift from the ledger.
func GroupCustomers(invoices []models.Invoice) []models.CustomerSummary {
	type acc struct {
		summary models.CustomerSummary
		billed  decimal.Decimal
		paid    decimal.Decimal
	}
	byName := map[string]*acc{}
	var order []string
	for _, inv := range invoices {
		key := NormalizeName(inv.CustomerName)
		a, ok := byName[key]
		if !ok {
			a = &acc{summary: models.CustomerSummary{
				Name:    strings.TrimSpace(inv.CustomerName),
				Phone:   inv.CustomerPhone,
				Address: inv.CustomerAddr,
			}}
			byName[key] = a
			order = append(order, key)
		}
		a.summary.InvoiceCount++
		a.billed = a.billed.Add(decimal.NewFromFloat(inv.GrandTotal))
		a.paid = a.paid.Add(decimal.NewFromFloat(inv.AmountPaid))
	}

	out := make([]models.CustomerSummary, 0, len(order))
	for _, key := range order {
		a := byName[key]
		a.summary.TotalBilled, _ = a.billed.Float64()
		a.summary.TotalPaid, _ = a.paid.Float64()
		a.summary.TotalDue, _ = a.billed.Sub(a.paid).Float64()
		out = append(out, a.summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// NormalizeName collapses whitespace and case so "  Ravi Kumar" and
// "ravi kumar" group as one customer.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
