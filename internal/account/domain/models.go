package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus tracks the commercial state of a client account.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial          SubscriptionStatus = "trial"
	SubscriptionStatusActive         SubscriptionStatus = "active"
	SubscriptionStatusPendingPayment SubscriptionStatus = "pending_payment"
	SubscriptionStatusCancelled      SubscriptionStatus = "cancelled"
)

// ClientAccount is the identity plus mutable token/storage balance of a tenant.
// Balances only move through the settlement engine's credit path.
type ClientAccount struct {
	ID                 snowflake.ID       `gorm:"primaryKey" json:"id"`
	Email              string             `gorm:"type:text;not null;uniqueIndex" json:"email"`
	CompanyName        string             `gorm:"type:text" json:"company_name,omitempty"`
	AvailableTokens    int64              `gorm:"not null;default:0" json:"available_tokens"`
	StorageLimitGB     float64            `gorm:"not null;default:0" json:"storage_limit_gb"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:text;not null;default:'trial'" json:"subscription_status"`
	Metadata           datatypes.JSONMap  `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ClientAccount) TableName() string { return "client_accounts" }

// BalanceCredit is the increment applied to an account inside a settlement.
type BalanceCredit struct {
	Tokens    int64
	StorageGB float64
}
