package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TokenPackage is a purchasable bundle of tokens plus storage headroom.
type TokenPackage struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Tokens      int64        `gorm:"not null" json:"tokens"`
	BonusTokens int64        `gorm:"not null;default:0" json:"bonus_tokens"`
	StorageGB   float64      `gorm:"not null;default:0" json:"storage_gb"`
	PriceCents  int64        `gorm:"not null" json:"price_cents"`
	Currency    string       `gorm:"type:text;not null;default:'EUR'" json:"currency"`
	Active      bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TokenPackage) TableName() string { return "token_packages" }

// TotalTokens is the credited amount: purchased plus bonus.
func (p TokenPackage) TotalTokens() int64 { return p.Tokens + p.BonusTokens }
