package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert inserts idempotently on purchase_record_id and reports whether
	// a new row was written.
	Insert(ctx context.Context, db *gorm.DB, record *ReceiptRecord) (bool, error)
	FindByPurchaseID(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) (*ReceiptRecord, error)
}
