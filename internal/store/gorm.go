package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/hmehta/billbook/internal/models"
)

var querySanitizer = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

// Gorm is the GORM-backed Store used in production (postgres) and in tests
// (in-memory sqlite); both drivers ship with the module.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm { return &Gorm{db: db} }

// wrapErr maps driver errors onto the store taxonomy. Record-miss becomes
// ErrNotFound; everything else is a storage failure the caller must see.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

func (g *Gorm) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	return wrapErr(g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Invoice
		err := tx.Where("invoice_no = ?", inv.InvoiceNo).First(&existing).Error
		switch {
		case err == nil:
			// Upsert: reuse the row and replace its line items wholesale so
			// the stored sequence matches exactly what the caller sent.
			inv.ID = existing.ID
			inv.CreatedAt = existing.CreatedAt
			if derr := tx.Where("invoice_id = ?", existing.ID).Delete(&models.LineItem{}).Error; derr != nil {
				return derr
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			inv.ID = 0
		default:
			return err
		}
		for i := range inv.Items {
			inv.Items[i].ID = 0
			inv.Items[i].InvoiceID = inv.ID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(inv).Error
	}))
}

func (g *Gorm) GetInvoice(ctx context.Context, invoiceNo string) (*models.Invoice, error) {
	var inv models.Invoice
	err := g.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("seq asc") }).
		Where("invoice_no = ?", invoiceNo).
		First(&inv).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &inv, nil
}

func (g *Gorm) ListInvoices(ctx context.Context, opts ListOptions) ([]models.Invoice, int64, error) {
	dbq := g.db.WithContext(ctx).Model(&models.Invoice{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		safe := querySanitizer.ReplaceAllString(q, "")
		dbq = dbq.Where("lower(customer_name) LIKE ?", "%"+strings.ToLower(safe)+"%")
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, wrapErr(err)
	}
	dbq = dbq.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("seq asc") }).
		Order("invoice_date desc, id desc")
	if opts.Limit > 0 {
		dbq = dbq.Limit(opts.Limit).Offset(opts.Offset)
	}
	var invs []models.Invoice
	if err := dbq.Find(&invs).Error; err != nil {
		return nil, 0, wrapErr(err)
	}
	return invs, total, nil
}

func (g *Gorm) SetAmountPaid(ctx context.Context, invoiceNo string, amountPaid float64) error {
	res := g.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("invoice_no = ?", invoiceNo).
		Update("amount_paid", amountPaid)
	if res.Error != nil {
		return wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) AddPayment(ctx context.Context, p *models.Payment) error {
	return wrapErr(g.db.WithContext(ctx).Create(p).Error)
}

func (g *Gorm) ListPaymentsFor(ctx context.Context, invoiceNo string) ([]models.Payment, error) {
	var ps []models.Payment
	err := g.db.WithContext(ctx).
		Where("invoice_no = ?", invoiceNo).
		Order("date asc, created_at asc").
		Find(&ps).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return ps, nil
}

func (g *Gorm) AddReturn(ctx context.Context, r *models.Return) error {
	return wrapErr(g.db.WithContext(ctx).Create(r).Error)
}

func (g *Gorm) ListReturnsFor(ctx context.Context, invoiceNo string) ([]models.Return, error) {
	var rs []models.Return
	err := g.db.WithContext(ctx).
		Where("invoice_no = ?", invoiceNo).
		Order("date asc, created_at asc").
		Find(&rs).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return rs, nil
}

func (g *Gorm) Transaction(ctx context.Context, fn func(Store) error) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGorm(tx))
	})
	if err == nil {
		return nil
	}
	// Keep taxonomy errors from fn intact; wrap raw driver failures.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
