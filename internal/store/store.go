// Package store is the persistence boundary of the core. Components receive
// a Store by injection rather than reaching for a process-wide handle, so
// tests can substitute doubles and nothing depends on hidden shared state.
package store

import (
	"context"
	"errors"

	"github.com/hmehta/billbook/internal/models"
)

// Sentinel errors for the keyed operations. Storage failures wrap
// ErrStorageUnavailable and propagate unchanged to the caller; the only
// sanctioned local recovery is the read-side payment listing degrading to
// empty on the statement path.
var (
	ErrNotFound           = errors.New("record not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ListOptions narrows an invoice listing. Query matches a case-insensitive
// substring of the customer name.
type ListOptions struct {
	Query  string
	Limit  int
	Offset int
}

// Store is the document-store boundary over the invoices, payments and
// returns collections. Invoices are keyed by invoice number; saving an
// existing number overwrites (upsert semantics by design). There is no hard
// delete here: deletion goes through the recycle bin subsystem.
type Store interface {
	// SaveInvoice inserts or overwrites the invoice under its number,
	// replacing the line-item sequence wholesale.
	SaveInvoice(ctx context.Context, inv *models.Invoice) error
	// GetInvoice returns ErrNotFound when the number is absent or the
	// invoice is soft-deleted.
	GetInvoice(ctx context.Context, invoiceNo string) (*models.Invoice, error)
	// ListInvoices returns invoices ordered by invoice date descending,
	// plus the total count before pagination.
	ListInvoices(ctx context.Context, opts ListOptions) ([]models.Invoice, int64, error)
	// SetAmountPaid updates the cumulative paid figure on an invoice.
	SetAmountPaid(ctx context.Context, invoiceNo string, amountPaid float64) error

	AddPayment(ctx context.Context, p *models.Payment) error
	// ListPaymentsFor returns payments for an invoice ordered by date
	// ascending, ties by arrival order.
	ListPaymentsFor(ctx context.Context, invoiceNo string) ([]models.Payment, error)
	AddReturn(ctx context.Context, r *models.Return) error
	ListReturnsFor(ctx context.Context, invoiceNo string) ([]models.Return, error)

	// Transaction runs fn against a store whose writes commit together or
	// not at all. The ledger uses this to keep the invoice update and the
	// payment append a single logical unit.
	Transaction(ctx context.Context, fn func(Store) error) error
}
