package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionStatusPending SessionStatus = "pending"
	SessionStatusSettled SessionStatus = "settled"
	SessionStatusFailed  SessionStatus = "failed"
)

const (
	PaymentMethodCard        = "card"
	PaymentMethodSEPA        = "sepa_debit"
	PaymentMethodBizum       = "bizum"
	PaymentMethodDirectDebit = "direct_debit"
)

// CheckoutSession freezes the package terms a client agreed to pay. The
// transaction ID it mints is what the payment processor later echoes back,
// so the settlement engine can reconstruct the full purchase from the
// confirmation alone.
type CheckoutSession struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	TransactionID    string            `gorm:"type:text;not null;uniqueIndex:ux_checkout_sessions_txn" json:"transaction_id"`
	ClientID         snowflake.ID      `gorm:"not null;index" json:"client_id"`
	PackageSlug      string            `gorm:"type:text;not null" json:"package_slug"`
	PackageName      string            `gorm:"type:text;not null" json:"package_name"`
	Tokens           int64             `gorm:"not null" json:"tokens"`
	BonusTokens      int64             `gorm:"not null;default:0" json:"bonus_tokens"`
	StorageGB        float64           `gorm:"not null;default:0" json:"storage_gb"`
	PriceCents       int64             `gorm:"not null" json:"price_cents"`
	Currency         string            `gorm:"type:text;not null" json:"currency"`
	PaymentMethod    string            `gorm:"type:text;not null" json:"payment_method"`
	MandateReference string            `gorm:"type:text" json:"mandate_reference,omitempty"`
	Status           SessionStatus     `gorm:"type:text;not null;default:'pending'" json:"status"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CheckoutSession) TableName() string { return "checkout_sessions" }
