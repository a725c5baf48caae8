package models

import (
	"time"

	"gorm.io/datatypes"
)

// Recycle bin entity types.
const (
	EntityInvoice = "invoice"
)

// RecycleBinItem is the tombstone for a soft-deleted entity. CustomerName and
// GrandTotal are denormalized so bin listings never need to rehydrate the
// underlying record; Snapshot holds the full entity as JSON so a restore can
// reconstruct it even if the soft-deleted row is gone.
type RecycleBinItem struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	EntityType   string         `gorm:"not null;index" json:"entity_type"`
	EntityID     string         `gorm:"not null;index" json:"entity_id"`
	CustomerName string         `json:"customer_name"`
	GrandTotal   float64        `json:"grand_total"`
	DeletedAt    time.Time      `gorm:"not null;index" json:"deleted_at"`
	Snapshot     datatypes.JSON `json:"-"`
}
