package models

import "time"

// Payment types. The first payment recorded against a fresh invoice is
// "initial"; every later one is "additional".
const (
	PaymentInitial    = "initial"
	PaymentAdditional = "additional"
)

// Payment is an append-only record tied to an invoice by number. Payments are
// never edited; the sum of payment amounts for an invoice must always equal
// the invoice's AmountPaid.
type Payment struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	InvoiceNo string    `gorm:"not null;index" json:"invoice_no"`
	Date      time.Time `gorm:"not null" json:"date"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Type      string    `gorm:"not null" json:"type"`
	CreatedAt time.Time `json:"-"`
}

// Return records goods coming back against an invoice. Same append-only
// discipline as Payment.
type Return struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	InvoiceNo   string    `gorm:"not null;index" json:"invoice_no"`
	Date        time.Time `gorm:"not null" json:"date"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"-"`
}
