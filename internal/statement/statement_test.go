package statement

import (
	"strings"
	"testing"
	"time"

	"github.com/hmehta/billbook/internal/models"
)

func TestRenderMirrorsLedgerRows(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		InvoiceNo:    "INV-001",
		InvoiceDate:  day,
		CustomerName: "Ravi Kumar",
		GrandTotal:   1000,
		AmountPaid:   700,
	}
	payments := []models.Payment{
		{ID: "a", InvoiceNo: "INV-001", Date: day.AddDate(0, 0, 5), Amount: 400, Type: models.PaymentInitial},
		{ID: "b", InvoiceNo: "INV-001", Date: day.AddDate(0, 0, 9), Amount: 300, Type: models.PaymentAdditional},
	}

	out := Render(inv, payments)
	for _, want := range []string{
		"Statement for invoice INV-001",
		"Customer: Ravi Kumar",
		"Invoice INV-001",
		"Payment (initial)",
		"Payment (additional)",
		"Balance due: 300.00",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	// Opening row precedes payments, payments in date order.
	if strings.Index(out, "Invoice INV-001") > strings.Index(out, "Payment (initial)") {
		t.Fatalf("opening row not first:\n%s", out)
	}
	if strings.Index(out, "Payment (initial)") > strings.Index(out, "Payment (additional)") {
		t.Fatalf("payments out of order:\n%s", out)
	}
}

func TestRenderWithoutPayments(t *testing.T) {
	inv := &models.Invoice{InvoiceNo: "INV-002", InvoiceDate: time.Now(), GrandTotal: 500}
	out := Render(inv, nil)
	if !strings.Contains(out, "Balance due: 500.00") {
		t.Fatalf("missing balance line:\n%s", out)
	}
}

func TestRenderShowsCreditOnOverpayment(t *testing.T) {
	inv := &models.Invoice{InvoiceNo: "INV-003", InvoiceDate: time.Now(), GrandTotal: 100, AmountPaid: 150}
	out := Render(inv, nil)
	if !strings.Contains(out, "Credit balance: 50.00") {
		t.Fatalf("missing credit line:\n%s", out)
	}
}

func TestRenderShowsRoundOff(t *testing.T) {
	inv := &models.Invoice{InvoiceNo: "INV-004", InvoiceDate: time.Now(), GrandTotal: 333, RoundOff: 0.5}
	out := Render(inv, nil)
	if !strings.Contains(out, "Round off: +0.50") {
		t.Fatalf("missing round-off line:\n%s", out)
	}
}
