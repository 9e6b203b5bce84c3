package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PurchaseStatus tracks the lifecycle of a settled purchase.
type PurchaseStatus string

const (
	PurchaseStatusActive   PurchaseStatus = "active"
	PurchaseStatusExpired  PurchaseStatus = "expired"
	PurchaseStatusRefunded PurchaseStatus = "refunded"
)

// FinancialRecordType distinguishes ledger entry families.
type FinancialRecordType string

const (
	FinancialRecordTypeIncome FinancialRecordType = "income"
	FinancialRecordTypeRefund FinancialRecordType = "refund"
)

const CategoryTokenSales = "token_sales"

// PurchaseRecord is the immutable history entry for one settled transaction.
// The transaction ID doubles as the settlement idempotency key.
type PurchaseRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	ClientID        snowflake.ID   `gorm:"not null;index" json:"client_id"`
	PackageName     string         `gorm:"type:text;not null" json:"package_name"`
	TokensPurchased int64          `gorm:"not null" json:"tokens_purchased"`
	BonusTokens     int64          `gorm:"not null;default:0" json:"bonus_tokens"`
	PriceCents      int64          `gorm:"not null" json:"price_cents"`
	TransactionID   string         `gorm:"type:text;not null;uniqueIndex:ux_purchase_records_txn" json:"transaction_id"`
	PaymentMethod   string         `gorm:"type:text;not null" json:"payment_method"`
	Status          PurchaseStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	PurchasedAt     time.Time      `gorm:"not null" json:"purchased_at"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PurchaseRecord) TableName() string { return "purchase_records" }

// FinancialRecord is the accounting ledger entry, one-to-one with a settled
// purchase via the shared transaction ID.
type FinancialRecord struct {
	ID            snowflake.ID        `gorm:"primaryKey" json:"id"`
	Type          FinancialRecordType `gorm:"type:text;not null" json:"type"`
	AmountCents   int64               `gorm:"not null" json:"amount_cents"`
	Category      string              `gorm:"type:text;not null" json:"category"`
	TransactionID string              `gorm:"type:text;not null;index" json:"transaction_id"`
	ClientID      snowflake.ID        `gorm:"not null;index" json:"client_id"`
	PaymentStatus string              `gorm:"type:text;not null" json:"payment_status"`
	Metadata      datatypes.JSONMap   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FinancialRecord) TableName() string { return "financial_records" }
