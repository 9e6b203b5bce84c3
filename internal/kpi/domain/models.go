package domain

import "time"

// SnapshotRowID is the primary key of the single KPI row.
const SnapshotRowID int64 = 1

// Snapshot holds the current aggregate business metrics. There is exactly
// one row; it is only ever moved by additive deltas.
type Snapshot struct {
	ID                    int64     `gorm:"primaryKey" json:"-"`
	RevenueGeneratedCents int64     `gorm:"not null;default:0" json:"revenue_generated_cents"`
	TokensSoldTotal       int64     `gorm:"not null;default:0" json:"tokens_sold_total"`
	StorageUsedGB         float64   `gorm:"not null;default:0" json:"storage_used_gb"`
	ReceiptsIssuedTotal   int64     `gorm:"not null;default:0" json:"receipts_issued_total"`
	UpdatedAt             time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Snapshot) TableName() string { return "kpi_snapshots" }

// Delta is the additive change applied alongside a settlement or receipt.
// Every field is an increment; nothing here overwrites.
type Delta struct {
	RevenueCents int64
	Tokens       int64
	StorageGB    float64
	Receipts     int64
}

// IsZero reports whether applying the delta would be a no-op.
func (d Delta) IsZero() bool {
	return d.RevenueCents == 0 && d.Tokens == 0 && d.StorageGB == 0 && d.Receipts == 0
}
