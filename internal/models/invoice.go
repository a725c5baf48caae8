package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice is the primary billed record. The invoice number is caller-assigned
// and is the identity key everywhere in the system; the numeric ID only
// exists for GORM bookkeeping.
//
// BalanceDue is intentionally not a column: it is always derived from
// GrandTotal and AmountPaid so it can never drift from the payment history.
type Invoice struct {
	ID             uint           `gorm:"primaryKey" json:"-"`
	InvoiceNo      string         `gorm:"uniqueIndex;not null" json:"invoice_no"`
	InvoiceDate    time.Time      `gorm:"not null;index" json:"invoice_date"`
	CustomerName   string         `gorm:"index" json:"customer_name"`
	CustomerPhone  string         `json:"customer_phone"`
	CustomerAddr   string         `json:"customer_address"`
	Items          []LineItem     `gorm:"foreignKey:InvoiceID" json:"items"`
	DiscountPct    float64        `json:"discount_percent"`
	Subtotal       float64        `json:"subtotal"`
	DiscountAmount float64        `json:"discount_amount"`
	RoundOff       float64        `json:"round_off"`
	GrandTotal     float64        `json:"grand_total"`
	AmountPaid     float64        `json:"amount_paid"`
	CreatedAt      time.Time      `json:"-"`
	UpdatedAt      time.Time      `json:"-"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BalanceDue returns the amount still owed. Negative means the customer
// overpaid and carries a credit.
func (inv *Invoice) BalanceDue() float64 {
	return inv.GrandTotal - inv.AmountPaid
}

// LineItem belongs to exactly one invoice and has no independent identity in
// the API; Seq preserves the order the operator entered the lines in.
type LineItem struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	InvoiceID   uint    `gorm:"not null;index" json:"-"`
	Seq         int     `gorm:"not null" json:"seq"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}
