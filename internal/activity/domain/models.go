package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	TypePurchaseSettled   = "purchase.settled"
	TypePaymentFailed     = "payment.failed"
	TypeMandateSigned     = "mandate.signed"
	TypeMandateRevoked    = "mandate.revoked"
	TypeCheckoutStarted   = "checkout.started"
	TypeReceiptIssued     = "receipt.issued"
	TypeAccountRegistered = "account.registered"
)

// ActivityLog is the append-only audit trail. Rows are never updated or
// deleted; compliance depends on that.
type ActivityLog struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	ClientID     snowflake.ID      `gorm:"not null;index" json:"client_id"`
	ActivityType string            `gorm:"type:text;not null;index" json:"activity_type"`
	Description  string            `gorm:"type:text;not null" json:"description"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ActivityLog) TableName() string { return "activity_logs" }

type ActivityCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	ClientID     snowflake.ID
	ActivityType string
	StartAt      *time.Time
	EndAt        *time.Time
	Cursor       *ActivityCursor
	Limit        int
}
