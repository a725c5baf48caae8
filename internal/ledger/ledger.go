// Package ledger keeps an invoice's monetary totals reconciled with its
// append-only payment history: grandTotal = amountPaid + balanceDue at all
// times, with the sum of payment records equal to amountPaid.
package ledger

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hmehta/billbook/internal/models"
	"github.com/hmehta/billbook/internal/store"
)

var (
	// ErrInvalidAmount rejects non-positive or non-finite payment amounts.
	ErrInvalidAmount = errors.New("invalid payment amount")
	// ErrReconciliationConflict means the stored amountPaid and the payment
	// records have diverged. It is surfaced loudly, never silently repaired.
	ErrReconciliationConflict = errors.New("payment history and amount paid have diverged")
)

// Engine applies payments and builds statements against an injected store.
type Engine struct {
	st store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is swappable in tests.
	now func() time.Time
}

func New(st store.Store) *Engine {
	return &Engine{st: st, locks: map[string]*sync.Mutex{}, now: time.Now}
}

// lockFor serializes ApplyPayment per invoice number so parallel callers
// cannot interleave the read-increment-write and break the sum-of-payments
// invariant.
func (e *Engine) lockFor(invoiceNo string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[invoiceNo]
	if !ok {
		l = &sync.Mutex{}
		e.locks[invoiceNo] = l
	}
	return l
}

// ApplyPayment records a payment against the invoice. The invoice update and
// the payment append commit as one transaction: either both land or neither
// does. Overpayment is allowed; the balance simply goes negative and the
// statement shows the credit.
func (e *Engine) ApplyPayment(ctx context.Context, invoiceNo string, amount float64) (*models.Invoice, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}

	l := e.lockFor(invoiceNo)
	l.Lock()
	defer l.Unlock()

	var updated *models.Invoice
	err := e.st.Transaction(ctx, func(tx store.Store) error {
		inv, err := tx.GetInvoice(ctx, invoiceNo)
		if err != nil {
			return err
		}
		payments, err := tx.ListPaymentsFor(ctx, invoiceNo)
		if err != nil {
			return err
		}
		if err := checkReconciled(inv, payments); err != nil {
			return err
		}

		ptype := models.PaymentAdditional
		if len(payments) == 0 {
			ptype = models.PaymentInitial
		}
		p := &models.Payment{
			ID:        uuid.NewString(),
			InvoiceNo: invoiceNo,
			Date:      e.now(),
			Amount:    amount,
			Type:      ptype,
		}
		if err := tx.AddPayment(ctx, p); err != nil {
			return err
		}

		newPaid, _ := decimal.NewFromFloat(inv.AmountPaid).
			Add(decimal.NewFromFloat(amount)).Float64()
		if err := tx.SetAmountPaid(ctx, invoiceNo, newPaid); err != nil {
			return err
		}
		inv.AmountPaid = newPaid
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// checkReconciled verifies sum(payments) == invoice.AmountPaid. A mismatch
// can only happen if some earlier writer bypassed the transaction discipline.
func checkReconciled(inv *models.Invoice, payments []models.Payment) error {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(decimal.NewFromFloat(p.Amount))
	}
	if !sum.Equal(decimal.NewFromFloat(inv.AmountPaid)) {
		return ErrReconciliationConflict
	}
	return nil
}

// Row is one line of a running-balance statement.
type Row struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Balance     float64   `json:"balance"`
}

// BuildStatement produces the chronological ledger for an invoice: a
// synthetic opening row carrying the grand total, then one row per payment
// sorted by date ascending (ties keep arrival order), each reducing the
// running balance. The final balance equals the invoice's BalanceDue.
func BuildStatement(inv *models.Invoice, payments []models.Payment) []Row {
	sorted := make([]models.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	rows := make([]Row, 0, len(sorted)+1)
	balance := decimal.NewFromFloat(inv.GrandTotal)
	bal, _ := balance.Float64()
	rows = append(rows, Row{
		Date:        inv.InvoiceDate,
		Description: "Invoice " + inv.InvoiceNo,
		Amount:      inv.GrandTotal,
		Balance:     bal,
	})
	for _, p := range sorted {
		balance = balance.Sub(decimal.NewFromFloat(p.Amount))
		bal, _ = balance.Float64()
		rows = append(rows, Row{
			Date:        p.Date,
			Description: "Payment (" + p.Type + ")",
			Amount:      -p.Amount,
			Balance:     bal,
		})
	}
	return rows
}
