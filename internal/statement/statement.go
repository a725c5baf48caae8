// Package statement renders a printable plain-text account statement for an
// invoice. It is a read-only consumer of {invoice, payments} and mirrors the
// row ordering of the ledger's BuildStatement exactly.
package statement

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/hmehta/billbook/internal/ledger"
	"github.com/hmehta/billbook/internal/models"
)

const dateLayout = "2006-01-02"

// Render writes the statement as aligned text suitable for printing. It
// never fails on missing payments: the caller may pass an empty slice when
// the payment listing was unavailable, and the statement still renders the
// opening balance.
func Render(inv *models.Invoice, payments []models.Payment) string {
	rows := ledger.BuildStatement(inv, payments)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Statement for invoice %s\n", inv.InvoiceNo)
	fmt.Fprintf(&buf, "Customer: %s\n", inv.CustomerName)
	if inv.CustomerPhone != "" {
		fmt.Fprintf(&buf, "Phone: %s\n", inv.CustomerPhone)
	}
	buf.WriteString("\n")

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Date\tDescription\tAmount\tBalance\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t\n", r.Date.Format(dateLayout), r.Description, r.Amount, r.Balance)
	}
	_ = w.Flush()

	fmt.Fprintf(&buf, "\nGrand total: %.2f\n", inv.GrandTotal)
	fmt.Fprintf(&buf, "Amount paid: %.2f\n", inv.AmountPaid)
	due := inv.BalanceDue()
	if due < 0 {
		fmt.Fprintf(&buf, "Credit balance: %.2f\n", -due)
	} else {
		fmt.Fprintf(&buf, "Balance due: %.2f\n", due)
	}
	if inv.RoundOff != 0 {
		fmt.Fprintf(&buf, "Round off: %+.2f\n", inv.RoundOff)
	}
	return buf.String()
}
