package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ReceiptRecord marks a purchase as having had its receipt issued. One row
// per purchase; regeneration reuses the number and never double-counts.
type ReceiptRecord struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	ReceiptNumber    string       `gorm:"type:text;not null;uniqueIndex" json:"receipt_number"`
	PurchaseRecordID snowflake.ID `gorm:"not null;uniqueIndex:ux_receipt_records_purchase" json:"purchase_record_id"`
	TransactionID    string       `gorm:"type:text;not null;index" json:"transaction_id"`
	ClientID         snowflake.ID `gorm:"not null;index" json:"client_id"`
	AmountCents      int64        `gorm:"not null" json:"amount_cents"`
	TaxCents         int64        `gorm:"not null" json:"tax_cents"`
	IssuedAt         time.Time    `gorm:"not null" json:"issued_at"`
}

// TableName sets the database table name.
func (ReceiptRecord) TableName() string { return "receipt_records" }
