package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmehta/billbook/internal/db"
	"github.com/hmehta/billbook/internal/models"
	"github.com/hmehta/billbook/internal/store"
)

func setupLedger(t *testing.T) (*gorm.DB, store.Store, *Engine) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	st := store.NewGorm(conn)
	return conn, st, New(st)
}

func seedInvoice(t *testing.T, st store.Store, no string, grandTotal float64) {
	t.Helper()
	inv := &models.Invoice{
		InvoiceNo:    no,
		InvoiceDate:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		CustomerName: "Ravi Kumar",
		Items: []models.LineItem{
			{Seq: 1, Description: "Widget", Quantity: 1, Rate: grandTotal, Amount: grandTotal},
		},
		Subtotal:   grandTotal,
		GrandTotal: grandTotal,
	}
	require.NoError(t, st.SaveInvoice(context.Background(), inv))
}

func TestApplyPaymentScenario(t *testing.T) {
	// INV-001 at 1000, payments of 400 then 300 leave 300 due and a
	// three-row statement: 1000/1000, -400/600, -300/300.
	_, st, eng := setupLedger(t)
	ctx := context.Background()
	seedInvoice(t, st, "INV-001", 1000)

	inv, err := eng.ApplyPayment(ctx, "INV-001", 400)
	require.NoError(t, err)
	assert.Equal(t, 400.0, inv.AmountPaid)
	assert.Equal(t, 600.0, inv.BalanceDue())

	inv, err = eng.ApplyPayment(ctx, "INV-001", 300)
	require.NoError(t, err)
	assert.Equal(t, 700.0, inv.AmountPaid)
	assert.Equal(t, 300.0, inv.BalanceDue())

	payments, err := st.ListPaymentsFor(ctx, "INV-001")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentInitial, payments[0].Type)
	assert.Equal(t, models.PaymentAdditional, payments[1].Type)

	stored, err := st.GetInvoice(ctx, "INV-001")
	require.NoError(t, err)
	rows := BuildStatement(stored, payments)
	require.Len(t, rows, 3)
	assert.Equal(t, 1000.0, rows[0].Amount)
	assert.Equal(t, 1000.0, rows[0].Balance)
	assert.Equal(t, -400.0, rows[1].Amount)
	assert.Equal(t, 600.0, rows[1].Balance)
	assert.Equal(t, -300.0, rows[2].Amount)
	assert.Equal(t, 300.0, rows[2].Balance)
	assert.Equal(t, stored.BalanceDue(), rows[2].Balance)
}

func TestApplyPaymentRejectsInvalidAmounts(t *testing.T) {
	_, st, eng := setupLedger(t)
	ctx := context.Background()
	seedInvoice(t, st, "INV-002", 500)

	for _, amount := range []float64{0, -50} {
		_, err := eng.ApplyPayment(ctx, "INV-002", amount)
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %v", amount)
	}

	inv, err := st.GetInvoice(ctx, "INV-002")
	require.NoError(t, err)
	assert.Equal(t, 0.0, inv.AmountPaid)
	assert.Equal(t, 500.0, inv.BalanceDue())
	payments, err := st.ListPaymentsFor(ctx, "INV-002")
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestApplyPaymentUnknownInvoice(t *testing.T) {
	_, _, eng := setupLedger(t)
	_, err := eng.ApplyPayment(context.Background(), "NOPE", 10)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyPaymentAllowsOverpayment(t *testing.T) {
	_, st, eng := setupLedger(t)
	ctx := context.Background()
	seedInvoice(t, st, "INV-003", 100)

	inv, err := eng.ApplyPayment(ctx, "INV-003", 150)
	require.NoError(t, err)
	assert.Equal(t, -50.0, inv.BalanceDue())
}

func TestApplyPaymentDetectsDivergedHistory(t *testing.T) {
	conn, st, eng := setupLedger(t)
	ctx := context.Background()
	seedInvoice(t, st, "INV-004", 1000)
	_, err := eng.ApplyPayment(ctx, "INV-004", 100)
	require.NoError(t, err)

	// Corrupt amount_paid behind the engine's back.
	require.NoError(t, conn.Model(&models.Invoice{}).
		Where("invoice_no = ?", "INV-004").
		Update("amount_paid", 999).Error)

	_, err = eng.ApplyPayment(ctx, "INV-004", 100)
	assert.ErrorIs(t, err, ErrReconciliationConflict)
}

// failingPayments makes AddPayment blow up so the rollback of the paired
// amount-paid update can be observed.
type failingPayments struct {
	store.Store
}

func (f failingPayments) AddPayment(context.Context, *models.Payment) error {
	return errors.New("disk on fire")
}

func (f failingPayments) Transaction(ctx context.Context, fn func(store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(failingPayments{tx})
	})
}

func TestApplyPaymentIsAtomic(t *testing.T) {
	_, st, _ := setupLedger(t)
	ctx := context.Background()
	seedInvoice(t, st, "INV-005", 1000)

	eng := New(failingPayments{st})
	_, err := eng.ApplyPayment(ctx, "INV-005", 250)
	require.Error(t, err)

	inv, err := st.GetInvoice(ctx, "INV-005")
	require.NoError(t, err)
	assert.Equal(t, 0.0, inv.AmountPaid, "amount paid must roll back with the failed payment append")
	payments, err := st.ListPaymentsFor(ctx, "INV-005")
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestBuildStatementSortsByDateKeepingArrivalOrder(t *testing.T) {
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{InvoiceNo: "INV-010", InvoiceDate: day, GrandTotal: 100, AmountPaid: 60}
	payments := []models.Payment{
		{ID: "b", Date: day.AddDate(0, 0, 2), Amount: 30, Type: models.PaymentAdditional},
		{ID: "a", Date: day, Amount: 10, Type: models.PaymentInitial},
		{ID: "c", Date: day, Amount: 20, Type: models.PaymentAdditional},
	}
	rows := BuildStatement(inv, payments)
	require.Len(t, rows, 4)
	// Same-day payments keep their arrival order (a before c), the later
	// date sorts last.
	assert.Equal(t, -10.0, rows[1].Amount)
	assert.Equal(t, -20.0, rows[2].Amount)
	assert.Equal(t, -30.0, rows[3].Amount)
	assert.Equal(t, inv.BalanceDue(), rows[3].Balance)
}

func TestBuildStatementEmptyPayments(t *testing.T) {
	inv := &models.Invoice{InvoiceNo: "INV-011", GrandTotal: 750}
	rows := BuildStatement(inv, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, 750.0, rows[0].Balance)
}
