// Package money computes invoice totals. All functions are pure: the same
// line items and discount always produce the same four figures regardless of
// call order or prior state.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/hmehta/billbook/internal/models"
)

// Totals is the result of ComputeTotals. GrandTotal is rounded to the nearest
// whole currency unit; RoundOff is the signed remainder kept visible on
// printed documents.
type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	RoundOff       float64
	GrandTotal     float64
}

// ComputeTotals derives the monetary totals for a set of line items and a
// percentage discount. Negative quantities or rates are clamped to zero and
// reported through the clamped flag so the caller can surface a data-entry
// warning; they are never fatal.
func ComputeTotals(items []models.LineItem, discountPct float64) (t Totals, clamped bool) {
	subtotal := decimal.Zero
	for _, it := range items {
		qty := decimal.NewFromFloat(it.Quantity)
		rate := decimal.NewFromFloat(it.Rate)
		if qty.IsNegative() {
			qty = decimal.Zero
			clamped = true
		}
		if rate.IsNegative() {
			rate = decimal.Zero
			clamped = true
		}
		subtotal = subtotal.Add(qty.Mul(rate))
	}

	discount := subtotal.Mul(decimal.NewFromFloat(discountPct)).Div(decimal.NewFromInt(100))
	net := subtotal.Sub(discount)
	grand := net.Round(0)

	t.Subtotal, _ = subtotal.Float64()
	t.DiscountAmount, _ = discount.Float64()
	t.GrandTotal, _ = grand.Float64()
	t.RoundOff, _ = grand.Sub(net).Float64()
	return t, clamped
}

// LineAmount returns qty×rate for a single line, with the same clamping
// policy as ComputeTotals.
func LineAmount(qty, rate float64) float64 {
	if qty < 0 {
		qty = 0
	}
	if rate < 0 {
		rate = 0
	}
	amt, _ := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(rate)).Float64()
	return amt
}
