package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ConfirmationRecord deduplicates inbound processor events. One row per
// (provider, provider event ID); replays hit the unique index and stop here,
// before the settlement engine ever sees them.
type ConfirmationRecord struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	Provider        string            `gorm:"type:text;not null;uniqueIndex:ux_confirmations_provider_event" json:"provider"`
	ProviderEventID string            `gorm:"type:text;not null;uniqueIndex:ux_confirmations_provider_event" json:"provider_event_id"`
	TransactionID   string            `gorm:"type:text;not null;index" json:"transaction_id"`
	Status          string            `gorm:"type:text;not null" json:"status"`
	AmountCents     int64             `gorm:"not null" json:"amount_cents"`
	Payload         datatypes.JSONMap `gorm:"type:jsonb" json:"payload,omitempty"`
	ReceivedAt      time.Time         `gorm:"not null" json:"received_at"`
}

// TableName sets the database table name.
func (ConfirmationRecord) TableName() string { return "payment_confirmations" }

const (
	ConfirmationStatusSucceeded = "succeeded"
	ConfirmationStatusFailed    = "failed"
)
