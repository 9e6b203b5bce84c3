package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MandateStatus tracks the SEPA mandate lifecycle: a mandate is created
// signed (active) and stays reusable until explicitly revoked.
type MandateStatus string

const (
	MandateStatusActive  MandateStatus = "active"
	MandateStatusRevoked MandateStatus = "revoked"
)

// SEPAMandate is a recurring-debit authorization. Only derived signature
// metadata is persisted; the raw signature raster is discarded after
// validation for minimal-data-retention compliance.
type SEPAMandate struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	MandateReference string        `gorm:"type:text;not null;uniqueIndex" json:"mandate_reference"`
	ClientID         snowflake.ID  `gorm:"not null;index" json:"client_id"`
	DebtorName       string        `gorm:"type:text;not null" json:"debtor_name"`
	DebtorIBAN       string        `gorm:"type:text;not null" json:"debtor_iban"`
	DebtorBIC        string        `gorm:"type:text;not null" json:"debtor_bic"`
	CreditorName     string        `gorm:"type:text;not null" json:"creditor_name"`
	CreditorID       string        `gorm:"type:text;not null" json:"creditor_id"`
	Status           MandateStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	SignedAt         time.Time     `gorm:"not null" json:"signed_at"`
	SignatureHash    string        `gorm:"type:text;not null" json:"signature_hash"`
	SignaturePixels  int           `gorm:"not null" json:"signature_pixels"`
	SignatureDevice  string        `gorm:"type:text" json:"signature_device,omitempty"`
	RevokedAt        *time.Time    `json:"revoked_at,omitempty"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SEPAMandate) TableName() string { return "sepa_mandates" }

// SignatureProof is the raw capture evidence presented at signing time.
// Raster bytes are a grayscale bitmap; any non-zero byte counts as a
// marked pixel.
type SignatureProof struct {
	Raster     []byte
	Device     string
	CapturedAt time.Time
}

// MarkedPixels counts non-blank raster pixels.
func (p SignatureProof) MarkedPixels() int {
	marked := 0
	for _, b := range p.Raster {
		if b != 0 {
			marked++
		}
	}
	return marked
}
