// Package recyclebin owns deletion for the whole system. Records move
// through Active -> Deleted -> {Restored | Purged}; nothing outside this
// package hard-deletes an invoice, so a delete is always recoverable until
// the operator purges it.
package recyclebin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hmehta/billbook/internal/models"
	"github.com/hmehta/billbook/internal/store"
)

// Bin is the tombstone subsystem. It shares the database with the primary
// store but is the only writer of the recycle_bin_items collection.
type Bin struct {
	db *gorm.DB

	now func() time.Time
}

func New(db *gorm.DB) *Bin {
	return &Bin{db: db, now: time.Now}
}

// ListFilter narrows a bin listing. EntityType filters exactly; Query is a
// case-insensitive substring match on the snapshotted customer name.
type ListFilter struct {
	EntityType string
	Query      string
}

// PurgeReport names the tombstones EmptyBin could not remove. Items listed
// here are left untouched in the bin.
type PurgeReport struct {
	FailedIDs []string
}

func (r *PurgeReport) Error() string {
	return fmt.Sprintf("purge failed for %d item(s): %s", len(r.FailedIDs), strings.Join(r.FailedIDs, ", "))
}

// SoftDeleteInvoice tombstones the invoice: the row gets a deleted_at mark
// (leaving the data fully intact) and a RecycleBinItem snapshot is written
// in the same transaction. Returns the tombstone.
func (b *Bin) SoftDeleteInvoice(ctx context.Context, invoiceNo string) (*models.RecycleBinItem, error) {
	var item *models.RecycleBinItem
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("seq asc") }).
			Where("invoice_no = ?", invoiceNo).First(&inv).Error; err != nil {
			return err
		}
		snap, err := json.Marshal(inv)
		if err != nil {
			return err
		}
		item = &models.RecycleBinItem{
			ID:           uuid.NewString(),
			EntityType:   models.EntityInvoice,
			EntityID:     inv.InvoiceNo,
			CustomerName: inv.CustomerName,
			GrandTotal:   inv.GrandTotal,
			DeletedAt:    b.now(),
			Snapshot:     snap,
		}
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
	if err != nil {
		item = nil
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
	}
	return item, nil
}

// Restore moves the entity behind the tombstone back into the primary
// store under its original identity and removes the tombstone. Returns
// store.ErrNotFound if the tombstone was already purged or restored.
func (b *Bin) Restore(ctx context.Context, tombstoneID string) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.RecycleBinItem
		if err := tx.Where("id = ?", tombstoneID).First(&item).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Model(&models.Invoice{}).
			Where("invoice_no = ? AND deleted_at IS NOT NULL", item.EntityID).
			Update("deleted_at", nil)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Soft-deleted row is gone; rebuild the record from the snapshot.
			var inv models.Invoice
			if err := json.Unmarshal(item.Snapshot, &inv); err != nil {
				return err
			}
			inv.ID = 0
			for i := range inv.Items {
				inv.Items[i].ID = 0
				inv.Items[i].InvoiceID = 0
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.RecycleBinItem{}, "id = ?", tombstoneID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
	}
	return nil
}

// Purge irreversibly erases the tombstone and the underlying entity: the
// invoice row (soft-deleted or not), its line items, and its payment and
// return history. The history must go with the invoice, otherwise a new
// invoice reusing the number would inherit orphaned payments and trip the
// ledger's reconciliation check on its first payment. Terminal: a second
// purge or a restore of the same id fails with store.ErrNotFound.
func (b *Bin) Purge(ctx context.Context, tombstoneID string) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.RecycleBinItem
		if err := tx.Where("id = ?", tombstoneID).First(&item).Error; err != nil {
			return err
		}
		var inv models.Invoice
		err := tx.Unscoped().Where("invoice_no = ?", item.EntityID).First(&inv).Error
		if err == nil {
			if derr := tx.Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; derr != nil {
				return derr
			}
			if derr := tx.Unscoped().Delete(&inv).Error; derr != nil {
				return derr
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if derr := tx.Where("invoice_no = ?", item.EntityID).Delete(&models.Payment{}).Error; derr != nil {
			return derr
		}
		if derr := tx.Where("invoice_no = ?", item.EntityID).Delete(&models.Return{}).Error; derr != nil {
			return derr
		}
		return tx.Delete(&models.RecycleBinItem{}, "id = ?", tombstoneID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
	}
	return nil
}

// EmptyBin purges every tombstone one by one. Items that fail stay in the
// bin and are reported by id; the count covers only what was removed.
func (b *Bin) EmptyBin(ctx context.Context) (int, error) {
	var items []models.RecycleBinItem
	if err := b.db.WithContext(ctx).Select("id").Find(&items).Error; err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
	}
	removed := 0
	var failed []string
	for _, it := range items {
		if err := b.Purge(ctx, it.ID); err != nil {
			failed = append(failed, it.ID)
			continue
		}
		removed++
	}
	if len(failed) > 0 {
		return removed, &PurgeReport{FailedIDs: failed}
	}
	return removed, nil
}

// List returns tombstones most recently deleted first.
func (b *Bin) List(ctx context.Context, f ListFilter) ([]models.RecycleBinItem, error) {
	dbq := b.db.WithContext(ctx).Model(&models.RecycleBinItem{})
	if f.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", f.EntityType)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		dbq = dbq.Where("lower(customer_name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var items []models.RecycleBinItem
	if err := dbq.Order("deleted_at desc, id desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
	}
	return items, nil
}
